package shell

import (
	"bufio"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"imgfs/fs"
)

// Interpreter drives a mounted image through a REPL: it tracks the
// current working directory and dispatches parsed commands to the fs
// package operations, printing OK on success the way the command set
// it was modeled on does.
type Interpreter struct {
	image  string
	fsys   *fs.FileSystem
	cwd    string
	log    *logrus.Entry
	logger *logrus.Logger
}

// quietCommands print their own output and never get a trailing OK.
var quietCommands = map[string]bool{
	"ls": true, "cat": true, "pwd": true, "info": true,
}

// NewInterpreter wraps an already-mounted filesystem for interactive use.
// fsys may be nil if the image has not been formatted yet; only "format"
// is accepted until it is.
func NewInterpreter(image string, fsys *fs.FileSystem, logger *logrus.Logger) *Interpreter {
	return &Interpreter{
		image:  image,
		fsys:   fsys,
		cwd:    "/",
		log:    logger.WithField("component", "shell"),
		logger: logger,
	}
}

// FS returns the currently mounted filesystem, or nil if none is mounted.
func (i *Interpreter) FS() *fs.FileSystem {
	return i.fsys
}

// ReadAndExec reads one command line from r and executes it. It reports
// whether the command succeeded and should print a trailing OK.
func (i *Interpreter) ReadAndExec(r *bufio.Reader) (bool, error) {
	args, err := readCommand(r)
	if err == errEmptyLine {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := i.Exec(args); err != nil {
		return false, err
	}
	return !quietCommands[strings.ToLower(args[0])], nil
}

// resolve turns a command argument into an absolute image path, joining
// it against the current directory when it is not already absolute.
func (i *Interpreter) resolve(p string) string {
	if p == "" {
		return i.cwd
	}
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(path.Join(i.cwd, p))
}

// Exec dispatches one parsed command line. It returns the error from the
// underlying operation, if any; the caller decides how to present it.
func (i *Interpreter) Exec(args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd := strings.ToLower(args[0])
	i.log.WithField("cmd", cmd).Debug("executing command")

	if i.fsys == nil && cmd != "format" {
		return fmt.Errorf("filesystem does not exist, use format <size> first")
	}

	switch cmd {
	case "format":
		return i.cmdFormat(args)
	case "mkdir":
		return i.cmdMkdir(args)
	case "rmdir":
		return i.cmdRmdir(args)
	case "ls":
		return i.cmdLs(args)
	case "cd":
		return i.cmdCd(args)
	case "pwd":
		return i.cmdPwd(args)
	case "cat":
		return i.cmdCat(args)
	case "incp":
		return i.cmdIncp(args)
	case "outcp":
		return i.cmdOutcp(args)
	case "rm":
		return i.cmdRm(args)
	case "ln":
		return i.cmdLn(args)
	case "append":
		return i.cmdAppend(args)
	case "truncate":
		return i.cmdTruncate(args)
	case "info":
		return i.cmdInfo(args)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

package shell

import (
	"bufio"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// errEmptyLine marks a blank input line; the REPL loop skips it silently.
var errEmptyLine = errors.New("empty line")

// parseCommand splits a raw command line into whitespace-delimited
// arguments. The first argument is the command name.
func parseCommand(line string) ([]string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, errEmptyLine
	}
	return args, nil
}

// readCommand reads one line from r and parses it into arguments.
func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	return parseCommand(line)
}

// parseSize parses a size string such as "2B", "2KB", "2GB" or "2TB" and
// returns the target size in bytes.
func parseSize(in string) (uint64, error) {
	in = strings.ToUpper(in)
	suffixes := "KMGT"

	idx := strings.IndexFunc(in, unicode.IsLetter)
	if idx == -1 {
		return 0, errors.New("unspecified suffix (B, K, M, G, T)")
	}
	value, err := strconv.ParseUint(in[:idx], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse size")
	}
	suffix := in[idx]
	if suffix == 'B' {
		return value, nil
	}
	shift := strings.IndexByte(suffixes, suffix)
	if shift == -1 {
		return 0, errors.Errorf("invalid size suffix %q", string(suffix))
	}
	return value << uint((shift + 1) * 10), nil
}

package shell

import (
	"fmt"
	"path"
	"strconv"

	"github.com/pkg/errors"

	"imgfs/fs"
)

func (i *Interpreter) cmdFormat(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: format <size>")
	}
	bytes, err := parseSize(args[1])
	if err != nil {
		return errors.Wrap(err, "format")
	}
	blocksCount := uint32((bytes + fs.BlockSize - 1) / fs.BlockSize)

	if i.fsys != nil {
		_ = i.fsys.Close()
	}
	newFsys, err := fs.Format(i.image, blocksCount, i.logger)
	if err != nil {
		return errors.Wrap(err, "format")
	}
	i.fsys = newFsys
	i.cwd = "/"
	return nil
}

func (i *Interpreter) cmdMkdir(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: mkdir <path>")
	}
	_, err := i.fsys.CreateDirectory(i.resolve(args[1]))
	return err
}

func (i *Interpreter) cmdRmdir(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rmdir <path>")
	}
	return i.fsys.RemoveDirectory(i.resolve(args[1]))
}

func (i *Interpreter) cmdLs(args []string) error {
	target := i.cwd
	if len(args) > 1 {
		target = i.resolve(args[1])
	}
	entries, err := i.fsys.ListDirectory(target)
	if err != nil {
		return err
	}
	for _, e := range entries {
		kind := "f"
		if e.FileType == fs.TypeDirectory {
			kind = "d"
		}
		fmt.Printf("%s %8d %s\n", kind, e.Inode, e.Name)
	}
	return nil
}

func (i *Interpreter) cmdCd(args []string) error {
	target := "/"
	if len(args) > 1 {
		target = i.resolve(args[1])
	}
	_, mode, _, err := i.fsys.Stat(target)
	if err != nil {
		return err
	}
	if mode != fs.TypeDirectory {
		return errors.Wrapf(fs.ErrNotADirectory, "cd %s", target)
	}
	i.cwd = target
	return nil
}

func (i *Interpreter) cmdPwd(args []string) error {
	fmt.Println(i.cwd)
	return nil
}

func (i *Interpreter) cmdCat(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: cat <path>")
	}
	data, err := i.fsys.ReadFile(i.resolve(args[1]))
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func (i *Interpreter) cmdIncp(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: incp <host-path> <path>")
	}
	return i.fsys.CopyFromSystem(args[1], i.resolve(args[2]))
}

func (i *Interpreter) cmdOutcp(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: outcp <path> <host-path>")
	}
	return i.fsys.CopyToSystem(i.resolve(args[1]), args[2])
}

func (i *Interpreter) cmdRm(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rm <path>")
	}
	return i.fsys.RemoveFile(i.resolve(args[1]))
}

func (i *Interpreter) cmdLn(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: ln <path> <link-path>")
	}
	return i.fsys.CreateLink(i.resolve(args[1]), i.resolve(args[2]))
}

func (i *Interpreter) cmdAppend(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: append <path> <n>")
	}
	n, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return errors.Wrap(err, "append")
	}
	return i.fsys.AppendToFile(i.resolve(args[1]), uint32(n))
}

func (i *Interpreter) cmdTruncate(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: truncate <path> <n>")
	}
	n, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return errors.Wrap(err, "truncate")
	}
	return i.fsys.TruncateFile(i.resolve(args[1]), uint32(n))
}

func (i *Interpreter) cmdInfo(args []string) error {
	if len(args) < 2 {
		u := i.fsys.DiskUsage()
		fmt.Printf("blocks: %d/%d free, inodes: %d/%d free\n",
			u.FreeBlocksCount, u.BlocksCount, u.FreeInodesCount, u.InodesCount)
		return nil
	}
	target := i.resolve(args[1])
	no, mode, size, err := i.fsys.Stat(target)
	if err != nil {
		return err
	}
	kind := "file"
	if mode == fs.TypeDirectory {
		kind = "directory"
	}
	fmt.Printf("%s: inode %d, %s, %d bytes\n", path.Clean(target), no, kind, size)
	return nil
}

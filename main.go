package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"imgfs/fs"
	"imgfs/shell"
)

func main() {
	if len(os.Args[1:]) != 1 {
		fmt.Println("Wrong amount of arguments. The argument should be the name of the filesystem image.")
		return
	}
	image := os.Args[1]

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	var fsys *fs.FileSystem
	if _, err := os.Stat(image); err == nil {
		fsys, err = fs.Mount(image, logger)
		if err != nil {
			logger.WithError(err).Fatal("could not mount filesystem")
		}
	}

	interp := shell.NewInterpreter(image, fsys, logger)
	if fsys == nil {
		fmt.Println("Filesystem image does not exist. Use 'format <size>' to create it.")
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		printOK, err := interp.ReadAndExec(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if printOK {
			fmt.Println("OK")
		}
	}

	if interp.FS() != nil {
		_ = interp.FS().Close()
	}
}

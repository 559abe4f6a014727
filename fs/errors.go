package fs

import "github.com/pkg/errors"

// The error taxonomy is deliberately coarse: every exported operation
// returns exactly one error, nil on success. Callers that need to branch
// on the failure category use errors.Is against one of these sentinels;
// internal call sites attach path/operation context with errors.Wrap so
// the sentinel still survives errors.Is after wrapping.
var (
	// ErrNotFound means path resolution reached a non-existent component.
	ErrNotFound = errors.New("not found")
	// ErrNotADirectory means an operation expected a directory inode.
	ErrNotADirectory = errors.New("not a directory")
	// ErrNotARegularFile means an operation expected a regular file inode.
	ErrNotARegularFile = errors.New("not a regular file")
	// ErrAlreadyExists means create collided with an existing name.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotEmpty means rmdir saw entries other than . and ..
	ErrNotEmpty = errors.New("not empty")
	// ErrNoSpace means block or inode allocation returned 0.
	ErrNoSpace = errors.New("no space left on device")
	// ErrOutOfRange means a block or inode number fell outside the image.
	ErrOutOfRange = errors.New("out of range")
	// ErrIOError means the underlying backing-file read/write failed.
	ErrIOError = errors.New("i/o error")
	// ErrInvalidImage means the superblock magic did not match at mount time.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNameTooLong means a name is longer than NameMaxLen (255 bytes).
	ErrNameTooLong = errors.New("name too long")
	// ErrTooLarge means a regular file would exceed 12+1024 blocks.
	ErrTooLarge = errors.New("file too large")
	// ErrInvalidArgument covers malformed call arguments, e.g. truncate_file(path, 0).
	ErrInvalidArgument = errors.New("invalid argument")
)

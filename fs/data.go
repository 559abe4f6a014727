package fs

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// fillPattern generates the deterministic payload append_to_file writes:
// byte i is 'A' + (i mod 26).
func fillPattern(n uint32) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('A' + (i % 26))
	}
	return buf
}

// appendBytes is the shared implementation behind AppendToFile and
// CopyFromSystem: it grows the regular file at path by exactly len(data)
// bytes, writing data verbatim. On any allocation failure partway
// through, every block allocated during this call — including a newly
// allocated indirect block — is freed, the inode's size is left
// unchanged, and no partial write is left visible.
func (f *FileSystem) appendBytes(path string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	inodeNo, in, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return errors.Wrapf(err, "append %s", path)
	}
	if in.Mode != TypeRegular {
		return errors.Wrapf(ErrNotARegularFile, "append %s", path)
	}
	if numBlocksForSize(in.Size+uint32(len(data))) > MaxFileBlocks {
		return errors.Wrapf(ErrTooLarge, "append %s", path)
	}

	origSize := in.Size
	var allocated []uint32
	rollback := func(cause error) error {
		f.freeBlocksBestEffort(allocated)
		in.Size = origSize
		return errors.Wrapf(cause, "append %s", path)
	}

	written := 0
	for written < len(data) {
		blockIdx := int(in.Size / BlockSize)
		offsetInBlock := int(in.Size % BlockSize)

		blockNo, err := resolveBlockNo(f.dev, in, blockIdx)
		if err != nil {
			return rollback(err)
		}
		if blockNo == 0 {
			blockNo, err = f.alloc.allocateBlock()
			if err != nil {
				return rollback(err)
			}
			allocated = append(allocated, blockNo)
			indirectAlloc, err := setBlockNo(f.dev, &in, blockIdx, blockNo, f.alloc)
			if indirectAlloc != 0 {
				allocated = append(allocated, indirectAlloc)
			}
			if err != nil {
				return rollback(err)
			}
		}

		buf, err := f.dev.readBlock(blockNo)
		if err != nil {
			return rollback(err)
		}
		n := copy(buf[offsetInBlock:], data[written:])
		if err := f.dev.writeBlock(blockNo, buf); err != nil {
			return rollback(err)
		}
		written += n
		in.Size += uint32(n)
	}

	if err := writeInode(f.dev, *f.sb, inodeNo, in); err != nil {
		return rollback(err)
	}
	f.log.WithField("path", path).WithField("bytes", len(data)).Debug("appended to file")
	return nil
}

// AppendToFile grows the regular file at path by n bytes of the
// deterministic fill pattern 'A' + (i mod 26).
func (f *FileSystem) AppendToFile(path string, n uint32) error {
	return f.appendBytes(path, fillPattern(n))
}

// TruncateFile removes the last n bytes of the regular file at path. n
// must be strictly positive and no greater than the file's current size;
// truncate_file(path, 0) is rejected rather than treated as a no-op.
func (f *FileSystem) TruncateFile(path string, n uint32) error {
	if n == 0 {
		return errors.Wrapf(ErrInvalidArgument, "truncate %s: n must be > 0", path)
	}
	inodeNo, in, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return errors.Wrapf(err, "truncate %s", path)
	}
	if in.Mode != TypeRegular {
		return errors.Wrapf(ErrNotARegularFile, "truncate %s", path)
	}
	if n > in.Size {
		return errors.Wrapf(ErrInvalidArgument, "truncate %s: n exceeds size", path)
	}

	newSize := in.Size - n
	oldBlocks := numBlocksForSize(in.Size)
	newBlocks := numBlocksForSize(newSize)

	var indirectBuf []byte
	indirectDirty := false
	if in.Blocks[indirectSlot] != 0 && oldBlocks > DirectBlocks {
		indirectBuf, err = f.dev.readBlock(in.Blocks[indirectSlot])
		if err != nil {
			return err
		}
	}

	for idx := oldBlocks - 1; idx >= newBlocks; idx-- {
		b, err := resolveBlockNo(f.dev, in, idx)
		if err != nil {
			return err
		}
		if b == 0 {
			continue
		}
		if err := f.alloc.freeBlock(b); err != nil {
			return err
		}
		if idx < DirectBlocks {
			in.Blocks[idx] = 0
		} else if indirectBuf != nil {
			off := (idx - DirectBlocks) * 4
			binary.LittleEndian.PutUint32(indirectBuf[off:off+4], 0)
			indirectDirty = true
		}
	}
	if newBlocks <= DirectBlocks && in.Blocks[indirectSlot] != 0 {
		if err := f.alloc.freeBlock(in.Blocks[indirectSlot]); err != nil {
			return err
		}
		in.Blocks[indirectSlot] = 0
	} else if indirectDirty {
		if err := f.dev.writeBlock(in.Blocks[indirectSlot], indirectBuf); err != nil {
			return err
		}
	}

	in.Size = newSize
	if err := writeInode(f.dev, *f.sb, inodeNo, in); err != nil {
		return err
	}
	f.log.WithField("path", path).WithField("removed", n).Debug("truncated file")
	return nil
}

// CopyFromSystem creates virtPath as a new regular file holding the
// contents read from the host file at hostPath.
func (f *FileSystem) CopyFromSystem(hostPath, virtPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return errors.Wrapf(ErrIOError, "incp %s: %v", hostPath, err)
	}
	inodeNo, err := f.CreateFile(virtPath)
	if err != nil {
		return err
	}
	if err := f.appendBytes(virtPath, data); err != nil {
		_ = f.RemoveFile(virtPath)
		return err
	}
	f.log.WithField("host", hostPath).WithField("path", virtPath).WithField("inode", inodeNo).Info("copied file into image")
	return nil
}

// CopyToSystem writes the contents of the regular file at virtPath to a
// new host file at hostPath.
func (f *FileSystem) CopyToSystem(virtPath, hostPath string) error {
	data, err := f.ReadFile(virtPath)
	if err != nil {
		return errors.Wrapf(err, "outcp %s", virtPath)
	}
	if err := os.WriteFile(hostPath, data, 0644); err != nil {
		return errors.Wrapf(ErrIOError, "outcp %s: %v", hostPath, err)
	}
	f.log.WithField("path", virtPath).WithField("host", hostPath).Info("copied file out of image")
	return nil
}

// ReadFile returns the full contents of the regular file at path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	_, in, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if in.Mode != TypeRegular {
		return nil, errors.Wrapf(ErrNotARegularFile, "read %s", path)
	}
	blocks, err := allocatedBlockNumbers(f.dev, in)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, in.Size)
	remaining := in.Size
	for _, b := range blocks {
		buf, err := f.dev.readBlock(b)
		if err != nil {
			return nil, err
		}
		n := remaining
		if n > BlockSize {
			n = BlockSize
		}
		out = append(out, buf[:n]...)
		remaining -= n
	}
	return out, nil
}

// DirEntryInfo is an exported view of one live, non-self-referential
// directory entry: its name, the inode it names, that inode's type, and
// its size (for a directory, BlockSize times the number of blocks it holds).
type DirEntryInfo struct {
	Name     string
	Inode    uint32
	FileType FileType
	Size     uint32
}

// ListDirectory returns the entries of the directory at path, skipping
// "." and "..".
func (f *FileSystem) ListDirectory(path string) ([]DirEntryInfo, error) {
	_, in, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return nil, errors.Wrapf(err, "ls %s", path)
	}
	if in.Mode != TypeDirectory {
		return nil, errors.Wrapf(ErrNotADirectory, "ls %s", path)
	}
	entries, err := listDirEntries(f.dev, in)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntryInfo, 0, len(entries))
	for _, s := range entries {
		if s.entry.Name == "." || s.entry.Name == ".." {
			continue
		}
		child, err := readInode(f.dev, *f.sb, s.entry.Inode)
		if err != nil {
			return nil, err
		}
		out = append(out, DirEntryInfo{Name: s.entry.Name, Inode: s.entry.Inode, FileType: s.entry.FileType, Size: child.Size})
	}
	return out, nil
}

// Usage reports overall block and inode occupancy.
type Usage struct {
	BlocksCount     uint32
	FreeBlocksCount uint32
	InodesCount     uint32
	FreeInodesCount uint32
}

// DiskUsage returns the current free/used block and inode counts.
func (f *FileSystem) DiskUsage() Usage {
	return Usage{
		BlocksCount:     f.sb.BlocksCount,
		FreeBlocksCount: f.sb.FreeBlocksCount,
		InodesCount:     f.sb.InodesCount,
		FreeInodesCount: f.sb.FreeInodesCount,
	}
}

// Stat resolves path and returns its inode number, type and size.
func (f *FileSystem) Stat(path string) (uint32, FileType, uint32, error) {
	no, in, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return 0, TypeNone, 0, errors.Wrapf(err, "stat %s", path)
	}
	return no, in.Mode, in.Size, nil
}

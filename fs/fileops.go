package fs

import (
	"github.com/pkg/errors"
)

// freeBlocksBestEffort frees every block in bs, logging but not stopping on the
// first failure, since this helper only runs during rollback of an
// already-failed operation.
func (f *FileSystem) freeBlocksBestEffort(bs []uint32) {
	for _, b := range bs {
		if err := f.alloc.freeBlock(b); err != nil {
			f.log.WithError(err).WithField("block", b).Warn("rollback: failed to free block")
		}
	}
}

// freeAllBlocks frees every data block an inode owns, including its
// single indirect block if one was allocated.
func (f *FileSystem) freeAllBlocks(in inode) error {
	blocks, err := allocatedBlockNumbers(f.dev, in)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := f.alloc.freeBlock(b); err != nil {
			return err
		}
	}
	if in.Blocks[indirectSlot] != 0 {
		if err := f.alloc.freeBlock(in.Blocks[indirectSlot]); err != nil {
			return err
		}
	}
	return nil
}

// CreateFile creates a new empty regular file at path.
func (f *FileSystem) CreateFile(path string) (uint32, error) {
	return f.createNode(path, TypeRegular)
}

func (f *FileSystem) createNode(path string, want FileType) (uint32, error) {
	parentNo, parent, name, err := resolveParent(f.dev, *f.sb, path)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	if _, ok, err := findDirEntry(f.dev, parent, name); err != nil {
		return 0, err
	} else if ok {
		return 0, errors.Wrapf(ErrAlreadyExists, "create %s", path)
	}
	newNo, err := f.alloc.allocateInode()
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	newIn := inode{Mode: want, Size: 0, LinksCount: 1}
	if err := writeInode(f.dev, *f.sb, newNo, newIn); err != nil {
		_ = f.alloc.freeInode(newNo)
		return 0, err
	}
	if err := addDirEntry(f.dev, *f.sb, f.alloc, &parent, name, newNo, want); err != nil {
		_ = f.alloc.freeInode(newNo)
		return 0, errors.Wrapf(err, "create %s", path)
	}
	if err := writeInode(f.dev, *f.sb, parentNo, parent); err != nil {
		_ = removeDirEntry(f.dev, parent, name)
		_ = f.alloc.freeInode(newNo)
		return 0, err
	}
	f.log.WithField("path", path).WithField("inode", newNo).Info("created node")
	return newNo, nil
}

// CreateDirectory creates a new empty directory at path, populated with
// the conventional "." and ".." entries.
func (f *FileSystem) CreateDirectory(path string) (uint32, error) {
	parentNo, parent, name, err := resolveParent(f.dev, *f.sb, path)
	if err != nil {
		return 0, errors.Wrapf(err, "mkdir %s", path)
	}
	if _, ok, err := findDirEntry(f.dev, parent, name); err != nil {
		return 0, err
	} else if ok {
		return 0, errors.Wrapf(ErrAlreadyExists, "mkdir %s", path)
	}

	newNo, err := f.alloc.allocateInode()
	if err != nil {
		return 0, errors.Wrapf(err, "mkdir %s", path)
	}
	newIn := inode{Mode: TypeDirectory, Size: 0, LinksCount: 2}

	rollback := func(cause error) (uint32, error) {
		blocks, _ := allocatedBlockNumbers(f.dev, newIn)
		f.freeBlocksBestEffort(blocks)
		if newIn.Blocks[indirectSlot] != 0 {
			_ = f.alloc.freeBlock(newIn.Blocks[indirectSlot])
		}
		_ = f.alloc.freeInode(newNo)
		return 0, errors.Wrapf(cause, "mkdir %s", path)
	}

	if err := addDirEntry(f.dev, *f.sb, f.alloc, &newIn, ".", newNo, TypeDirectory); err != nil {
		return rollback(err)
	}
	if err := addDirEntry(f.dev, *f.sb, f.alloc, &newIn, "..", parentNo, TypeDirectory); err != nil {
		return rollback(err)
	}
	if err := writeInode(f.dev, *f.sb, newNo, newIn); err != nil {
		return rollback(err)
	}
	if err := addDirEntry(f.dev, *f.sb, f.alloc, &parent, name, newNo, TypeDirectory); err != nil {
		return rollback(err)
	}
	if err := writeInode(f.dev, *f.sb, parentNo, parent); err != nil {
		_ = removeDirEntry(f.dev, parent, name)
		return rollback(err)
	}
	f.log.WithField("path", path).WithField("inode", newNo).Info("created directory")
	return newNo, nil
}

// RemoveDirectory deletes the empty directory at path. It fails with
// ErrNotEmpty if the directory holds any entry besides "." and "..".
func (f *FileSystem) RemoveDirectory(path string) error {
	dirNo, dir, err := resolvePath(f.dev, *f.sb, path)
	if err != nil {
		return errors.Wrapf(err, "rmdir %s", path)
	}
	if dir.Mode != TypeDirectory {
		return errors.Wrapf(ErrNotADirectory, "rmdir %s", path)
	}
	if dirNo == RootInode {
		return errors.Wrapf(ErrInvalidArgument, "rmdir %s: cannot remove root", path)
	}
	entries, err := listDirEntries(f.dev, dir)
	if err != nil {
		return err
	}
	if len(entries) > 2 {
		return errors.Wrapf(ErrNotEmpty, "rmdir %s", path)
	}

	_, parent, name, err := resolveParent(f.dev, *f.sb, path)
	if err != nil {
		return err
	}
	if err := f.freeAllBlocks(dir); err != nil {
		return err
	}
	if err := f.alloc.freeInode(dirNo); err != nil {
		return err
	}
	if err := removeDirEntry(f.dev, parent, name); err != nil {
		return err
	}
	// The parent's links_count is not decremented here: CreateDirectory
	// never increments it for the child's ".." entry, so a parent's
	// links_count does not include the ".." entries of its subdirectories.
	f.log.WithField("path", path).Info("removed directory")
	return nil
}

// RemoveFile unlinks name from its parent directory, freeing the inode's
// blocks and the inode itself once its link count reaches zero.
func (f *FileSystem) RemoveFile(path string) error {
	parentNo, parent, name, err := resolveParent(f.dev, *f.sb, path)
	if err != nil {
		return errors.Wrapf(err, "rm %s", path)
	}
	s, ok, err := findDirEntry(f.dev, parent, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "rm %s", path)
	}
	target, err := readInode(f.dev, *f.sb, s.entry.Inode)
	if err != nil {
		return err
	}
	if target.Mode == TypeDirectory {
		return errors.Wrapf(ErrNotARegularFile, "rm %s", path)
	}
	if err := removeDirEntry(f.dev, parent, name); err != nil {
		return err
	}
	target.LinksCount--
	if target.LinksCount == 0 {
		if err := f.freeAllBlocks(target); err != nil {
			return err
		}
		if err := f.alloc.freeInode(s.entry.Inode); err != nil {
			return err
		}
	} else {
		if err := writeInode(f.dev, *f.sb, s.entry.Inode, target); err != nil {
			return err
		}
	}
	_ = parentNo
	f.log.WithField("path", path).Info("removed file")
	return nil
}

// CreateLink adds a new hard link at linkPath pointing at the existing
// inode resolved from targetPath.
func (f *FileSystem) CreateLink(targetPath, linkPath string) error {
	targetNo, target, err := resolvePath(f.dev, *f.sb, targetPath)
	if err != nil {
		return errors.Wrapf(err, "link %s", targetPath)
	}
	parentNo, parent, name, err := resolveParent(f.dev, *f.sb, linkPath)
	if err != nil {
		return errors.Wrapf(err, "link %s", linkPath)
	}
	if _, ok, err := findDirEntry(f.dev, parent, name); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(ErrAlreadyExists, "link %s", linkPath)
	}
	if err := addDirEntry(f.dev, *f.sb, f.alloc, &parent, name, targetNo, target.Mode); err != nil {
		return err
	}
	if err := writeInode(f.dev, *f.sb, parentNo, parent); err != nil {
		_ = removeDirEntry(f.dev, parent, name)
		return err
	}
	target.LinksCount++
	if err := writeInode(f.dev, *f.sb, targetNo, target); err != nil {
		return err
	}
	f.log.WithField("target", targetPath).WithField("link", linkPath).Info("created hard link")
	return nil
}

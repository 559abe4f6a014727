package fs

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileSystem is a mounted image: the backing file, its superblock, its
// allocator, and the logger every operation reports through.
type FileSystem struct {
	file    *os.File
	dev     *blockDevice
	sb      *superblock
	alloc   *allocator
	log     *logrus.Entry
	session string
}

// Format creates a new image file at path holding blocksCount blocks,
// writes its superblock and block bitmap, and populates a root directory.
func Format(path string, blocksCount uint32, logger *logrus.Logger) (*FileSystem, error) {
	if blocksCount < 16 {
		return nil, errors.Wrapf(ErrInvalidArgument, "format %s: %d blocks is too small", path, blocksCount)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIOError, "format %s: %v", path, err)
	}
	if err := file.Truncate(int64(blocksCount) * BlockSize); err != nil {
		file.Close()
		return nil, errors.Wrapf(ErrIOError, "format %s: %v", path, err)
	}

	inodesCount := blocksCount / 4
	if inodesCount == 0 {
		inodesCount = 1
	}
	bitmapBlks := bitmapBlocks(blocksCount)
	inodeBlks := inodeTableBlocks(inodesCount)
	firstInodeBlock := uint32(1) + bitmapBlks
	firstDataBlock := firstInodeBlock + inodeBlks

	sb := superblock{
		Magic:           fsMagic,
		BlockSize:       BlockSize,
		BlocksCount:     blocksCount,
		FreeBlocksCount: blocksCount - firstDataBlock,
		InodesCount:     inodesCount,
		FreeInodesCount: inodesCount,
		FirstDataBlock:  firstDataBlock,
		FirstInodeBlock: firstInodeBlock,
		BitmapBlock:     1,
	}

	dev := newBlockDevice(file, blocksCount)
	if err := dev.writeBlock(0, encodeSuperblock(sb)); err != nil {
		file.Close()
		return nil, err
	}

	session := uuid.NewString()
	entry := logger.WithField("session", session)

	alloc := &allocator{dev: dev, sb: &sb, bitmap: make([]byte, bitmapBlks*BlockSize), log: entry}
	for b := uint32(0); b < firstDataBlock; b++ {
		alloc.bitSet(b)
	}
	if err := alloc.persistBitmap(); err != nil {
		file.Close()
		return nil, err
	}

	f := &FileSystem{file: file, dev: dev, sb: &sb, alloc: alloc, log: entry, session: session}

	rootNo, err := alloc.allocateInode()
	if err != nil {
		file.Close()
		return nil, err
	}
	if rootNo != RootInode {
		file.Close()
		return nil, errors.Errorf("format %s: root inode allocated as %d, want %d", path, rootNo, RootInode)
	}
	root := inode{Mode: TypeDirectory, LinksCount: 2}
	if err := addDirEntry(dev, sb, alloc, &root, ".", RootInode, TypeDirectory); err != nil {
		file.Close()
		return nil, err
	}
	if err := addDirEntry(dev, sb, alloc, &root, "..", RootInode, TypeDirectory); err != nil {
		file.Close()
		return nil, err
	}
	if err := writeInode(dev, sb, RootInode, root); err != nil {
		file.Close()
		return nil, err
	}

	entry.WithField("path", path).
		WithField("blocks_count", blocksCount).
		WithField("inodes_count", inodesCount).
		Info("formatted image")
	return f, nil
}

// Mount opens an existing image file and validates its superblock.
func Mount(path string, logger *logrus.Logger) (*FileSystem, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(ErrIOError, "mount %s: %v", path, err)
	}
	buf := make([]byte, BlockSize)
	if _, err := file.ReadAt(buf, 0); err != nil {
		file.Close()
		return nil, errors.Wrapf(ErrInvalidImage, "mount %s: %v", path, err)
	}
	sb := decodeSuperblock(buf)
	if sb.Magic != fsMagic || sb.BlockSize != BlockSize {
		file.Close()
		return nil, errors.Wrapf(ErrInvalidImage, "mount %s", path)
	}

	dev := newBlockDevice(file, sb.BlocksCount)
	session := uuid.NewString()
	entry := logger.WithField("session", session)
	alloc, err := loadAllocator(dev, &sb, entry)
	if err != nil {
		file.Close()
		return nil, err
	}

	entry.WithField("path", path).
		WithField("blocks_count", sb.BlocksCount).
		Info("mounted image")
	return &FileSystem{file: file, dev: dev, sb: &sb, alloc: alloc, log: entry, session: session}, nil
}

// Close releases the backing file. There is no write-back cache to flush:
// every mutating call already persisted its changes before returning.
func (f *FileSystem) Close() error {
	return f.file.Close()
}

package fs

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// bitmapBlocks returns how many blocks the block bitmap occupies for an
// image of blocksCount blocks, one bit per block, LSB-first within a byte.
func bitmapBlocks(blocksCount uint32) uint32 {
	bits := uint64(blocksCount)
	bytesNeeded := (bits + 7) / 8
	return uint32((bytesNeeded + BlockSize - 1) / BlockSize)
}

// allocator is the layer-2 allocator: a linear-scan, first-fit block
// bitmap kept mirrored in core, plus a linear-scan free-inode finder that
// treats links_count==0 as the free marker instead of a second bitmap.
// Every mutation writes the bitmap and superblock back to disk before the
// call returns, so the image is never left with an allocation decision
// that only exists in memory.
type allocator struct {
	dev    *blockDevice
	sb     *superblock
	bitmap []byte
	log    *logrus.Entry
}

func loadAllocator(dev *blockDevice, sb *superblock, log *logrus.Entry) (*allocator, error) {
	n := bitmapBlocks(sb.BlocksCount)
	bitmap := make([]byte, 0, n*BlockSize)
	for i := uint32(0); i < n; i++ {
		buf, err := dev.readBlock(sb.BitmapBlock + i)
		if err != nil {
			return nil, errors.Wrap(err, "load bitmap")
		}
		bitmap = append(bitmap, buf...)
	}
	return &allocator{dev: dev, sb: sb, bitmap: bitmap, log: log}, nil
}

func (a *allocator) bitTest(blockNo uint32) bool {
	return a.bitmap[blockNo/8]&(1<<(blockNo%8)) != 0
}

func (a *allocator) bitSet(blockNo uint32) {
	a.bitmap[blockNo/8] |= 1 << (blockNo % 8)
}

func (a *allocator) bitClear(blockNo uint32) {
	a.bitmap[blockNo/8] &^= 1 << (blockNo % 8)
}

func (a *allocator) persistBitmap() error {
	n := bitmapBlocks(a.sb.BlocksCount)
	for i := uint32(0); i < n; i++ {
		lo, hi := i*BlockSize, (i+1)*BlockSize
		if err := a.dev.writeBlock(a.sb.BitmapBlock+i, a.bitmap[lo:hi]); err != nil {
			return errors.Wrap(err, "persist bitmap")
		}
	}
	return nil
}

func (a *allocator) persistSuperblock() error {
	return a.dev.writeBlock(0, encodeSuperblock(*a.sb))
}

// allocateBlock scans the bitmap for the first unset bit and claims it.
// The bitmap and superblock are persisted before returning successfully.
func (a *allocator) allocateBlock() (uint32, error) {
	for b := a.sb.FirstDataBlock; b < a.sb.BlocksCount; b++ {
		if !a.bitTest(b) {
			a.bitSet(b)
			a.sb.FreeBlocksCount--
			if err := a.persistBitmap(); err != nil {
				a.bitClear(b)
				a.sb.FreeBlocksCount++
				return 0, err
			}
			if err := a.persistSuperblock(); err != nil {
				a.bitClear(b)
				a.sb.FreeBlocksCount++
				_ = a.persistBitmap()
				return 0, err
			}
			return b, nil
		}
	}
	a.log.WithField("free", a.sb.FreeBlocksCount).Warn("allocateBlock: no free block")
	return 0, ErrNoSpace
}

// freeBlock clears bit blockNo and persists the bitmap and superblock.
func (a *allocator) freeBlock(blockNo uint32) error {
	if blockNo < a.sb.FirstDataBlock || blockNo >= a.sb.BlocksCount {
		return errors.Wrapf(ErrOutOfRange, "free block %d", blockNo)
	}
	if !a.bitTest(blockNo) {
		return nil
	}
	a.bitClear(blockNo)
	a.sb.FreeBlocksCount++
	if err := a.persistBitmap(); err != nil {
		return err
	}
	return a.persistSuperblock()
}

// allocateInode scans the inode table linearly for the first record with
// links_count==0, the free marker. It does not write the new inode's
// contents, only claims the slot by giving it one link; callers overwrite
// the record immediately after with the real mode/size/blocks.
func (a *allocator) allocateInode() (uint32, error) {
	for n := uint32(1); n <= a.sb.InodesCount; n++ {
		in, err := readInode(a.dev, *a.sb, n)
		if err != nil {
			return 0, err
		}
		if in.isFree() {
			claimed := inode{Mode: TypeNone, LinksCount: 1}
			if err := writeInode(a.dev, *a.sb, n, claimed); err != nil {
				return 0, err
			}
			a.sb.FreeInodesCount--
			if err := a.persistSuperblock(); err != nil {
				_ = writeInode(a.dev, *a.sb, n, inode{})
				a.sb.FreeInodesCount++
				return 0, err
			}
			return n, nil
		}
	}
	a.log.WithField("free", a.sb.FreeInodesCount).Warn("allocateInode: no free inode")
	return 0, ErrNoSpace
}

// freeInode zeroes inode n's record, marking it free, and persists the
// superblock's free-inode count.
func (a *allocator) freeInode(n uint32) error {
	if n == 0 || n > a.sb.InodesCount {
		return errors.Wrapf(ErrOutOfRange, "free inode %d", n)
	}
	if err := writeInode(a.dev, *a.sb, n, inode{}); err != nil {
		return err
	}
	a.sb.FreeInodesCount++
	return a.persistSuperblock()
}

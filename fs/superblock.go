package fs

import "encoding/binary"

// fsMagic identifies a formatted image; bytes on disk are 53 46 53 4D.
const fsMagic uint32 = 0x4D534653

// superblockSize is the number of bytes the superblock occupies at the
// front of block 0; the remainder of the block is zero-padded.
const superblockSize = 9 * 4

// superblock mirrors the on-disk header at block 0. All fields are
// fixed-width little-endian unsigned integers with natural alignment.
type superblock struct {
	Magic           uint32
	BlockSize       uint32
	BlocksCount     uint32
	FreeBlocksCount uint32
	InodesCount     uint32
	FreeInodesCount uint32
	FirstDataBlock  uint32
	FirstInodeBlock uint32
	BitmapBlock     uint32
}

func encodeSuperblock(sb superblock) []byte {
	buf := make([]byte, BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.BlockSize)
	binary.LittleEndian.PutUint32(buf[8:12], sb.BlocksCount)
	binary.LittleEndian.PutUint32(buf[12:16], sb.FreeBlocksCount)
	binary.LittleEndian.PutUint32(buf[16:20], sb.InodesCount)
	binary.LittleEndian.PutUint32(buf[20:24], sb.FreeInodesCount)
	binary.LittleEndian.PutUint32(buf[24:28], sb.FirstDataBlock)
	binary.LittleEndian.PutUint32(buf[28:32], sb.FirstInodeBlock)
	binary.LittleEndian.PutUint32(buf[32:36], sb.BitmapBlock)
	return buf
}

func decodeSuperblock(buf []byte) superblock {
	return superblock{
		Magic:           binary.LittleEndian.Uint32(buf[0:4]),
		BlockSize:       binary.LittleEndian.Uint32(buf[4:8]),
		BlocksCount:     binary.LittleEndian.Uint32(buf[8:12]),
		FreeBlocksCount: binary.LittleEndian.Uint32(buf[12:16]),
		InodesCount:     binary.LittleEndian.Uint32(buf[16:20]),
		FreeInodesCount: binary.LittleEndian.Uint32(buf[20:24]),
		FirstDataBlock:  binary.LittleEndian.Uint32(buf[24:28]),
		FirstInodeBlock: binary.LittleEndian.Uint32(buf[28:32]),
		BitmapBlock:     binary.LittleEndian.Uint32(buf[32:36]),
	}
}

// inodeTableBlocks returns K = ceil(inodesCount * InodeSize / BlockSize),
// the number of blocks the inode table occupies.
func inodeTableBlocks(inodesCount uint32) uint32 {
	total := uint64(inodesCount) * uint64(InodeSize)
	return uint32((total + BlockSize - 1) / BlockSize)
}

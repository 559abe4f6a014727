package fs

import "encoding/binary"

const (
	// InodeSize is the fixed on-disk size, in bytes, of one inode record.
	InodeSize = 128
	// DirectBlocks is the number of direct block pointers in an inode.
	DirectBlocks = 12
	// totalBlockPtrs is direct pointers plus the single indirect pointer.
	totalBlockPtrs = DirectBlocks + 1
	// indirectSlot is the index of the single-indirect pointer within Blocks.
	indirectSlot = DirectBlocks
	// InodesPerBlock is how many 128-byte inode records fit in one block.
	InodesPerBlock = BlockSize / InodeSize
	// pointersPerIndirectBlock is how many 32-bit block pointers fit in an
	// indirect block.
	pointersPerIndirectBlock = BlockSize / 4
	// MaxFileBlocks is the largest number of data blocks a regular file may
	// occupy: 12 direct + 1024 reachable through the single indirect block.
	MaxFileBlocks = DirectBlocks + pointersPerIndirectBlock
	// inodeUsedBytes is how many bytes of the 128-byte record are
	// meaningful; the remainder is reserved and always zero.
	inodeUsedBytes = 4 + 4 + 4 + totalBlockPtrs*4
)

// FileType is the on-disk mode value of an inode.
type FileType uint32

const (
	TypeNone      FileType = 0
	TypeRegular   FileType = 1
	TypeDirectory FileType = 2
	TypeSymlink   FileType = 3
)

// inode mirrors the packed 128-byte on-disk inode record. Inode numbers
// are 1-based; inode 1 is the root directory. An inode is free iff
// LinksCount is zero.
type inode struct {
	Mode       FileType
	Size       uint32
	LinksCount uint32
	Blocks     [totalBlockPtrs]uint32
}

func (in *inode) isFree() bool { return in.LinksCount == 0 }

func encodeInode(in inode) []byte {
	buf := make([]byte, InodeSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(in.Mode))
	binary.LittleEndian.PutUint32(buf[4:8], in.Size)
	binary.LittleEndian.PutUint32(buf[8:12], in.LinksCount)
	for i, b := range in.Blocks {
		off := 12 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], b)
	}
	return buf
}

func decodeInode(buf []byte) inode {
	var in inode
	in.Mode = FileType(binary.LittleEndian.Uint32(buf[0:4]))
	in.Size = binary.LittleEndian.Uint32(buf[4:8])
	in.LinksCount = binary.LittleEndian.Uint32(buf[8:12])
	for i := range in.Blocks {
		off := 12 + i*4
		in.Blocks[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return in
}

// inodeLocation returns the inode-table block number and the byte offset
// of inode n's record within that block.
func inodeLocation(sb superblock, n uint32) (block uint32, offset uint32) {
	block = sb.FirstInodeBlock + (n-1)/InodesPerBlock
	offset = ((n - 1) % InodesPerBlock) * InodeSize
	return
}

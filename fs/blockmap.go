package fs

import "encoding/binary"

// numBlocksForSize returns ceil(size/BlockSize), the number of data
// blocks an inode of this size occupies. Directories always hold whole
// blocks, so their Size is itself always a multiple of BlockSize; regular
// files may have a partially used final block.
func numBlocksForSize(size uint32) int {
	if size == 0 {
		return 0
	}
	return int((size + BlockSize - 1) / BlockSize)
}

// resolveBlockNo returns the data block number at logical position idx
// within in (0-based), or 0 if that position was never allocated.
func resolveBlockNo(dev *blockDevice, in inode, idx int) (uint32, error) {
	if idx < DirectBlocks {
		return in.Blocks[idx], nil
	}
	indIdx := idx - DirectBlocks
	if indIdx >= pointersPerIndirectBlock {
		return 0, ErrOutOfRange
	}
	if in.Blocks[indirectSlot] == 0 {
		return 0, nil
	}
	buf, err := dev.readBlock(in.Blocks[indirectSlot])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[indIdx*4 : indIdx*4+4]), nil
}

// setBlockNo records blockNo at logical position idx within in, allocating
// the single indirect block on first use beyond the direct pointers. When
// it allocates a fresh indirect block it returns that block's number so
// the caller can track it for rollback; otherwise it returns 0.
func setBlockNo(dev *blockDevice, in *inode, idx int, blockNo uint32, alloc *allocator) (uint32, error) {
	if idx < DirectBlocks {
		in.Blocks[idx] = blockNo
		return 0, nil
	}
	indIdx := idx - DirectBlocks
	if indIdx >= pointersPerIndirectBlock {
		return 0, ErrTooLarge
	}
	var allocatedIndirect uint32
	if in.Blocks[indirectSlot] == 0 {
		nb, err := alloc.allocateBlock()
		if err != nil {
			return 0, err
		}
		if err := dev.writeBlock(nb, make([]byte, BlockSize)); err != nil {
			_ = alloc.freeBlock(nb)
			return 0, err
		}
		in.Blocks[indirectSlot] = nb
		allocatedIndirect = nb
	}
	buf, err := dev.readBlock(in.Blocks[indirectSlot])
	if err != nil {
		return allocatedIndirect, err
	}
	binary.LittleEndian.PutUint32(buf[indIdx*4:indIdx*4+4], blockNo)
	if err := dev.writeBlock(in.Blocks[indirectSlot], buf); err != nil {
		return allocatedIndirect, err
	}
	return allocatedIndirect, nil
}

// allocatedBlockNumbers returns the block numbers currently backing in,
// in logical order, skipping any hole (a 0 entry, which never occurs in
// this implementation but is defended against for robustness).
func allocatedBlockNumbers(dev *blockDevice, in inode) ([]uint32, error) {
	count := numBlocksForSize(in.Size)
	out := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		b, err := resolveBlockNo(dev, in, i)
		if err != nil {
			return nil, err
		}
		if b != 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

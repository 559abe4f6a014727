package fs

import "github.com/pkg/errors"

// readInode loads inode n from the inode table. Inode numbers are 1-based.
func readInode(dev *blockDevice, sb superblock, n uint32) (inode, error) {
	if n == 0 || n > sb.InodesCount {
		return inode{}, errors.Wrapf(ErrOutOfRange, "inode %d (inodes_count=%d)", n, sb.InodesCount)
	}
	blockNo, offset := inodeLocation(sb, n)
	buf, err := dev.readBlock(blockNo)
	if err != nil {
		return inode{}, errors.Wrapf(err, "read inode %d", n)
	}
	return decodeInode(buf[offset : offset+InodeSize]), nil
}

// writeInode stores in as inode n, rewriting the whole block it lives in.
func writeInode(dev *blockDevice, sb superblock, n uint32, in inode) error {
	if n == 0 || n > sb.InodesCount {
		return errors.Wrapf(ErrOutOfRange, "inode %d (inodes_count=%d)", n, sb.InodesCount)
	}
	blockNo, offset := inodeLocation(sb, n)
	buf, err := dev.readBlock(blockNo)
	if err != nil {
		return errors.Wrapf(err, "write inode %d", n)
	}
	copy(buf[offset:offset+InodeSize], encodeInode(in))
	return dev.writeBlock(blockNo, buf)
}

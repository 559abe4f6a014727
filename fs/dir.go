package fs

// listDirEntries returns every live (non-tombstone) entry in the
// directory backed by in, in on-disk order.
func listDirEntries(dev *blockDevice, in inode) ([]dirSlot, error) {
	blocks, err := allocatedBlockNumbers(dev, in)
	if err != nil {
		return nil, err
	}
	var out []dirSlot
	for idx, blockNo := range blocks {
		buf, err := dev.readBlock(blockNo)
		if err != nil {
			return nil, err
		}
		for slot := 0; slot < slotsPerBlock; slot++ {
			off := slot * DirEntrySize
			e := decodeDirEntry(buf[off : off+DirEntrySize])
			if e.isTombstone() {
				continue
			}
			out = append(out, dirSlot{directIndex: idx, blockNo: blockNo, offset: off, entry: e})
		}
	}
	return out, nil
}

// findDirEntry looks up name among in's live entries, matching byte for
// byte with no case folding or Unicode normalization.
func findDirEntry(dev *blockDevice, in inode, name string) (dirSlot, bool, error) {
	entries, err := listDirEntries(dev, in)
	if err != nil {
		return dirSlot{}, false, err
	}
	for _, s := range entries {
		if s.entry.Name == name {
			return s, true, nil
		}
	}
	return dirSlot{}, false, nil
}

// addDirEntry inserts a new (inodeNo, name, fileType) record into the
// directory backed by in, reusing a tombstoned slot if one exists and
// growing the directory by one block otherwise. in is updated in place;
// the caller is responsible for persisting it with writeInode.
func addDirEntry(dev *blockDevice, sb superblock, alloc *allocator, in *inode, name string, inodeNo uint32, fileType FileType) error {
	if len(name) > NameMaxLen {
		return ErrNameTooLong
	}
	blocks, err := allocatedBlockNumbers(dev, *in)
	if err != nil {
		return err
	}
	newEntry := dirEntry{Inode: inodeNo, RecLen: DirEntrySize, NameLen: uint8(len(name)), FileType: fileType, Name: name}
	for _, blockNo := range blocks {
		buf, err := dev.readBlock(blockNo)
		if err != nil {
			return err
		}
		for slot := 0; slot < slotsPerBlock; slot++ {
			off := slot * DirEntrySize
			e := decodeDirEntry(buf[off : off+DirEntrySize])
			if !e.isTombstone() {
				continue
			}
			copy(buf[off:off+DirEntrySize], encodeDirEntry(newEntry))
			return dev.writeBlock(blockNo, buf)
		}
	}

	// No free slot in any existing block: grow the directory.
	nb, err := alloc.allocateBlock()
	if err != nil {
		return err
	}
	buf := make([]byte, BlockSize)
	copy(buf[0:DirEntrySize], encodeDirEntry(newEntry))
	if err := dev.writeBlock(nb, buf); err != nil {
		_ = alloc.freeBlock(nb)
		return err
	}
	nextIdx := len(blocks)
	if _, err := setBlockNo(dev, in, nextIdx, nb, alloc); err != nil {
		_ = alloc.freeBlock(nb)
		return err
	}
	in.Size += BlockSize
	return nil
}

// removeDirEntry tombstones the live entry named name within in by
// zeroing only its inode field; rec_len, name and file_type are left as
// they were. It returns ErrNotFound if no such entry exists.
func removeDirEntry(dev *blockDevice, in inode, name string) error {
	s, ok, err := findDirEntry(dev, in, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	buf, err := dev.readBlock(s.blockNo)
	if err != nil {
		return err
	}
	buf[s.offset] = 0
	buf[s.offset+1] = 0
	buf[s.offset+2] = 0
	buf[s.offset+3] = 0
	return dev.writeBlock(s.blockNo, buf)
}

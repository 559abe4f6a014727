package fs

import "encoding/binary"

const (
	// NameMaxLen is the longest name storable in a directory entry; the
	// on-disk name field is 256 bytes to leave room for a NUL terminator.
	NameMaxLen = 255
	nameField  = 256
	// DirEntrySize is the fixed stride of every directory-entry slot.
	DirEntrySize = 4 + 2 + 1 + 1 + nameField // 264
	// slotsPerBlock is how many fixed-stride slots fit in one directory
	// block. 4096/264 leaves a 136-byte unused tail that is never scanned
	// (the original's raw pointer walk read past a block's bounds there;
	// this implementation simply never addresses that tail).
	slotsPerBlock = BlockSize / DirEntrySize
)

// dirEntry is one fixed-stride slot inside a directory block.
type dirEntry struct {
	Inode    uint32
	RecLen   uint16
	NameLen  uint8
	FileType FileType
	Name     string // authoritative length is NameLen, not len(Name)
}

func (e dirEntry) isTombstone() bool { return e.Inode == 0 || e.RecLen == 0 }

func encodeDirEntry(e dirEntry) []byte {
	buf := make([]byte, DirEntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], e.Inode)
	binary.LittleEndian.PutUint16(buf[4:6], e.RecLen)
	buf[6] = e.NameLen
	buf[7] = byte(e.FileType)
	copy(buf[8:8+nameField], e.Name)
	return buf
}

func decodeDirEntry(buf []byte) dirEntry {
	nameLen := buf[6]
	return dirEntry{
		Inode:    binary.LittleEndian.Uint32(buf[0:4]),
		RecLen:   binary.LittleEndian.Uint16(buf[4:6]),
		NameLen:  nameLen,
		FileType: FileType(buf[7]),
		Name:     string(buf[8 : 8+int(nameLen)]),
	}
}

// dirSlot locates one directory-entry slot: which of the inode's direct
// blocks it lives in, the block number itself, and the byte offset of the
// slot within that block. It lets callers rewrite a single slot in place.
type dirSlot struct {
	directIndex int
	blockNo     uint32
	offset      int
	entry       dirEntry
}

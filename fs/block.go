package fs

import (
	"os"

	"github.com/pkg/errors"
)

// BlockSize is the fixed size, in bytes, of every block in the image.
const BlockSize = 4096

// blockDevice wraps the backing image as a fixed-size array of BlockSize
// blocks with random-access read/write-through semantics: writes are
// persisted immediately, there is no user-visible write cache.
type blockDevice struct {
	file        *os.File
	blocksCount uint32
}

func newBlockDevice(file *os.File, blocksCount uint32) *blockDevice {
	return &blockDevice{file: file, blocksCount: blocksCount}
}

// readBlock reads block blockNo into a fresh BlockSize-byte buffer. Reads
// of an out-of-range block fail; reads of an in-range block that was
// never explicitly written return the zeros formatting produced, since
// format pre-extends the file with zeros for its full block count.
func (d *blockDevice) readBlock(blockNo uint32) ([]byte, error) {
	if blockNo >= d.blocksCount {
		return nil, errors.Wrapf(ErrOutOfRange, "block %d (blocks_count=%d)", blockNo, d.blocksCount)
	}
	buf := make([]byte, BlockSize)
	n, err := d.file.ReadAt(buf, int64(blockNo)*BlockSize)
	if err != nil && n < BlockSize {
		return nil, errors.Wrapf(ErrIOError, "read block %d: %v", blockNo, err)
	}
	return buf, nil
}

// writeBlock writes buf (exactly BlockSize bytes) to block blockNo and
// returns only once the write has reached the backing file.
func (d *blockDevice) writeBlock(blockNo uint32, buf []byte) error {
	if blockNo >= d.blocksCount {
		return errors.Wrapf(ErrOutOfRange, "block %d (blocks_count=%d)", blockNo, d.blocksCount)
	}
	if len(buf) != BlockSize {
		return errors.Errorf("write block %d: buffer is %d bytes, want %d", blockNo, len(buf), BlockSize)
	}
	if _, err := d.file.WriteAt(buf, int64(blockNo)*BlockSize); err != nil {
		return errors.Wrapf(ErrIOError, "write block %d: %v", blockNo, err)
	}
	return nil
}

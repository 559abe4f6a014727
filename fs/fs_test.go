package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

func newTestFS(t *testing.T, blocks uint32) *FileSystem {
	t.Helper()
	image := filepath.Join(t.TempDir(), "image.bin")
	return newTestFSAt(t, image, blocks)
}

func newTestFSAt(t *testing.T, image string, blocks uint32) *FileSystem {
	t.Helper()
	f, err := Format(image, blocks, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestFormatCreatesRootDirectory(t *testing.T) {
	f := newTestFS(t, 64)
	no, mode, _, err := f.Stat("/")
	require.NoError(t, err)
	require.Equal(t, RootInode, no)
	require.Equal(t, TypeDirectory, mode)

	entries, err := f.ListDirectory("/")
	require.NoError(t, err)
	require.Empty(t, entries)

	_, in, err := resolvePath(f.dev, *f.sb, "/")
	require.NoError(t, err)
	rawEntries, err := listDirEntries(f.dev, in)
	require.NoError(t, err)
	names := map[string]uint32{}
	for _, s := range rawEntries {
		names[s.entry.Name] = s.entry.Inode
	}
	require.Equal(t, RootInode, names["."])
	require.Equal(t, RootInode, names[".."])
}

func TestCreateFileAndWriteReadRoundTrip(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateFile("/hello.txt")
	require.NoError(t, err)

	require.NoError(t, f.AppendToFile("/hello.txt", 11))
	data, err := f.ReadFile("/hello.txt")
	require.NoError(t, err)
	require.Equal(t, string(fillPattern(11)), string(data))

	require.NoError(t, f.AppendToFile("/hello.txt", 1))
	data, err = f.ReadFile("/hello.txt")
	require.NoError(t, err)
	require.Equal(t, string(append(fillPattern(11), fillPattern(1)...)), string(data))
}

func TestCreateFileDuplicateNameFails(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	_, err = f.CreateFile("/a")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateFileMissingParentFails(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateFile("/nope/a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMkdirAndNestedOperations(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateDirectory("/dir")
	require.NoError(t, err)
	_, err = f.CreateFile("/dir/inner.txt")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/dir/inner.txt", 1))

	entries, err := f.ListDirectory("/dir")
	require.NoError(t, err)
	require.Len(t, entries, 1) // inner.txt; "." and ".." are not listed
}

func TestRmdirRequiresEmpty(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateDirectory("/dir")
	require.NoError(t, err)
	_, err = f.CreateFile("/dir/a")
	require.NoError(t, err)

	require.ErrorIs(t, f.RemoveDirectory("/dir"), ErrNotEmpty)

	require.NoError(t, f.RemoveFile("/dir/a"))
	require.NoError(t, f.RemoveDirectory("/dir"))

	_, _, _, err = f.Stat("/dir")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveFileFreesBlocksAndInode(t *testing.T) {
	f := newTestFS(t, 64)
	before := f.DiskUsage()

	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", uint32(BlockSize*3)))

	require.NoError(t, f.RemoveFile("/a"))
	after := f.DiskUsage()
	require.Equal(t, before, after)
}

func TestHardLinkSharesInodeAndCountsLinks(t *testing.T) {
	f := newTestFS(t, 64)
	no, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", 4))

	require.NoError(t, f.CreateLink("/a", "/b"))
	linkNo, _, size, err := f.Stat("/b")
	require.NoError(t, err)
	require.Equal(t, no, linkNo)
	require.Equal(t, uint32(4), size)

	require.NoError(t, f.RemoveFile("/a"))
	data, err := f.ReadFile("/b")
	require.NoError(t, err)
	require.Equal(t, string(fillPattern(4)), string(data))

	require.NoError(t, f.RemoveFile("/b"))
	_, _, _, err = f.Stat("/b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHardLinkToDirectoryAllowed(t *testing.T) {
	f := newTestFS(t, 64)
	dirNo, err := f.CreateDirectory("/dir")
	require.NoError(t, err)
	require.NoError(t, f.CreateLink("/dir", "/link"))

	linkNo, mode, _, err := f.Stat("/link")
	require.NoError(t, err)
	require.Equal(t, dirNo, linkNo)
	require.Equal(t, TypeDirectory, mode)
}

func TestAppendAcrossMultipleBlocksAndIndirect(t *testing.T) {
	f := newTestFS(t, 4096)
	_, err := f.CreateFile("/big")
	require.NoError(t, err)

	n := uint32(BlockSize * (DirectBlocks + 2))
	require.NoError(t, f.AppendToFile("/big", n))

	_, _, size, err := f.Stat("/big")
	require.NoError(t, err)
	require.Equal(t, n, size)

	got, err := f.ReadFile("/big")
	require.NoError(t, err)
	require.Equal(t, string(fillPattern(n)), string(got))
}

func TestTruncateRejectsZeroAndOversize(t *testing.T) {
	f := newTestFS(t, 64)
	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", 10))

	require.ErrorIs(t, f.TruncateFile("/a", 0), ErrInvalidArgument)
	require.ErrorIs(t, f.TruncateFile("/a", 11), ErrInvalidArgument)
}

func TestTruncateShrinkByBlockCount(t *testing.T) {
	// Scenario: append 4100 bytes (two direct blocks), truncate by 5.
	// Size drops to 4095 and the block count drops from 2 to 1.
	f := newTestFS(t, 64)
	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", 4100))
	before := f.DiskUsage()

	require.NoError(t, f.TruncateFile("/a", 5))
	_, _, size, err := f.Stat("/a")
	require.NoError(t, err)
	require.Equal(t, uint32(4095), size)
	require.Equal(t, before.FreeBlocksCount+1, f.DiskUsage().FreeBlocksCount)

	data, err := f.ReadFile("/a")
	require.NoError(t, err)
	require.Equal(t, string(fillPattern(4095)), string(data))
}

func TestTruncateDropsIndirectBlockWhenBackToDirect(t *testing.T) {
	// Scenario: append 12*4096+1 bytes (all direct blocks full plus one
	// byte in an indirect block), then truncate by 1. The file falls
	// back to exactly the 12 direct blocks and the indirect block is
	// freed.
	f := newTestFS(t, 4096)
	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", uint32(BlockSize*DirectBlocks+1)))

	require.NoError(t, f.TruncateFile("/a", 1))
	_, _, size, err := f.Stat("/a")
	require.NoError(t, err)
	require.Equal(t, uint32(BlockSize*DirectBlocks), size)

	_, in, err := resolvePath(f.dev, *f.sb, "/a")
	require.NoError(t, err)
	require.Equal(t, uint32(0), in.Blocks[indirectSlot])
}

func TestTruncateZeroesFreedIndirectSlotWhenIndirectBlockSurvives(t *testing.T) {
	// Scenario: append 14 blocks (12 direct + 2 via the indirect block),
	// truncate by one block. newBlocks=13 > DirectBlocks, so the
	// indirect block itself survives but its freed slot must be zeroed
	// and written back, not left pointing at a since-reallocated block.
	f := newTestFS(t, 4096)
	_, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", uint32(BlockSize*(DirectBlocks+2))))

	require.NoError(t, f.TruncateFile("/a", BlockSize))
	_, _, size, err := f.Stat("/a")
	require.NoError(t, err)
	require.Equal(t, uint32(BlockSize*(DirectBlocks+1)), size)

	_, in, err := resolvePath(f.dev, *f.sb, "/a")
	require.NoError(t, err)
	require.NotEqual(t, uint32(0), in.Blocks[indirectSlot])
	b, err := resolveBlockNo(f.dev, in, DirectBlocks+1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), b)

	// Regrowing must allocate a fresh block rather than trusting a
	// stale non-zero pointer for the freed logical slot.
	require.NoError(t, f.AppendToFile("/a", BlockSize))
	data, err := f.ReadFile("/a")
	require.NoError(t, err)
	want := append(fillPattern(uint32(BlockSize*(DirectBlocks+1))), fillPattern(BlockSize)...)
	require.Equal(t, string(want), string(data))
}

func TestCopyToAndFromSystem(t *testing.T) {
	f := newTestFS(t, 64)
	hostIn := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(hostIn, []byte("round trip content"), 0644))

	require.NoError(t, f.CopyFromSystem(hostIn, "/copied.txt"))
	data, err := f.ReadFile("/copied.txt")
	require.NoError(t, err)
	require.Equal(t, "round trip content", string(data))

	hostOut := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, f.CopyToSystem("/copied.txt", hostOut))
	out, err := os.ReadFile(hostOut)
	require.NoError(t, err)
	require.Equal(t, "round trip content", string(out))
}

func TestRemoveNonexistentFails(t *testing.T) {
	f := newTestFS(t, 64)
	require.ErrorIs(t, f.RemoveFile("/missing"), ErrNotFound)
}

func TestMountRejectsUnformattedFile(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	image := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(image, make([]byte, BlockSize), 0644))
	_, err := Mount(image, logger)
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestMountRoundTripsAcrossReopen(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	image := filepath.Join(t.TempDir(), "image.bin")

	f, err := Format(image, 64, logger)
	require.NoError(t, err)
	_, err = f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.AppendToFile("/a", 9))
	require.NoError(t, f.Close())

	f2, err := Mount(image, logger)
	require.NoError(t, err)
	defer f2.Close()
	data, err := f2.ReadFile("/a")
	require.NoError(t, err)
	require.Equal(t, string(fillPattern(9)), string(data))
}

package fs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorReusesFreedBlockFirstFit(t *testing.T) {
	f := newTestFS(t, 64)
	b1, err := f.alloc.allocateBlock()
	require.NoError(t, err)
	b2, err := f.alloc.allocateBlock()
	require.NoError(t, err)
	require.NoError(t, f.alloc.freeBlock(b1))

	b3, err := f.alloc.allocateBlock()
	require.NoError(t, err)
	require.Equal(t, b1, b3)
	require.NotEqual(t, b2, b3)
}

func TestAllocatorExhaustionReturnsNoSpace(t *testing.T) {
	f := newTestFS(t, 16)
	var allocated []uint32
	for {
		b, err := f.alloc.allocateBlock()
		if err != nil {
			require.ErrorIs(t, err, ErrNoSpace)
			break
		}
		allocated = append(allocated, b)
	}
	require.NotEmpty(t, allocated)
}

func TestAllocatorReusesFreedInode(t *testing.T) {
	f := newTestFS(t, 64)
	n1, err := f.CreateFile("/a")
	require.NoError(t, err)
	require.NoError(t, f.RemoveFile("/a"))

	n2, err := f.CreateFile("/b")
	require.NoError(t, err)
	require.Equal(t, n1, n2)
}

func TestBitmapPersistsAcrossMount(t *testing.T) {
	image := filepath.Join(t.TempDir(), "p.bin")
	f1 := newTestFSAt(t, image, 64)
	_, err := f1.CreateFile("/a")
	require.NoError(t, err)
	usageBefore := f1.DiskUsage()
	require.NoError(t, f1.Close())

	f2, err := Mount(image, testLogger())
	require.NoError(t, err)
	defer f2.Close()
	require.Equal(t, usageBefore, f2.DiskUsage())

	b, err := f2.alloc.allocateBlock()
	require.NoError(t, err)
	require.True(t, f2.alloc.bitTest(b))
}

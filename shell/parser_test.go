package shell

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommandSplitsOnWhitespace(t *testing.T) {
	args, err := parseCommand("mkdir  /foo/bar ")
	require.NoError(t, err)
	require.Equal(t, []string{"mkdir", "/foo/bar"}, args)
}

func TestParseCommandRejectsBlankLine(t *testing.T) {
	_, err := parseCommand("   ")
	require.ErrorIs(t, err, errEmptyLine)
}

func TestReadCommandReadsOneLineAtATime(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("ls /\ncat /a.txt\n"))
	args, err := readCommand(r)
	require.NoError(t, err)
	require.Equal(t, []string{"ls", "/"}, args)

	args, err = readCommand(r)
	require.NoError(t, err)
	require.Equal(t, []string{"cat", "/a.txt"}, args)
}

func TestParseSize(t *testing.T) {
	cases := map[string]uint64{
		"512B": 512,
		"2KB":  2 << 10,
		"4MB":  4 << 20,
		"1GB":  1 << 30,
	}
	for in, want := range cases {
		got, err := parseSize(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseSizeRejectsMissingSuffix(t *testing.T) {
	_, err := parseSize("1024")
	require.Error(t, err)
}

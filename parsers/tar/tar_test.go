package tar_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgnsk/binfield/parsers/tar"
	"github.com/mgnsk/binfield/stream"
)

// ustarHeader builds one 512-byte POSIX ustar header block for a file
// of the given name holding size bytes of content.
func ustarHeader(name string, size int64) []byte {
	b := make([]byte, 512)
	copy(b, name)
	copy(b[100:], fmt.Sprintf("%07o\x00", 0644))
	copy(b[108:], fmt.Sprintf("%07o\x00", 0))
	copy(b[116:], fmt.Sprintf("%07o\x00", 0))
	copy(b[124:], fmt.Sprintf("%011o\x00", size))
	copy(b[136:], fmt.Sprintf("%011o\x00", 0))
	for i := 148; i < 156; i++ {
		b[i] = ' '
	}
	b[156] = '0'
	copy(b[257:], "ustar\x0000")
	var checksum int
	for _, c := range b {
		checksum += int(c)
	}
	copy(b[148:], fmt.Sprintf("%06o\x00 ", checksum))
	return b
}

func padTo512(b []byte) []byte {
	for len(b)%512 != 0 {
		b = append(b, 0)
	}
	return b
}

func archiveWithOneFile(content string) []byte {
	var out []byte
	out = append(out, ustarHeader("hello.txt", int64(len(content)))...)
	out = append(out, padTo512([]byte(content))...)
	out = append(out, make([]byte, 512)...) // terminating zero block
	out = append(out, make([]byte, 512)...)
	return out
}

func TestTarSingleFile(t *testing.T) {
	data := archiveWithOneFile("hi there")
	st := stream.NewFromBytes(data)
	p := tar.New(st)

	ok, reason := p.Validate()
	require.True(t, ok, reason)

	name, err := p.Path("/file[0]/name")
	require.NoError(t, err)
	nv, err := name.Value()
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", nv)

	data0, err := p.ChildByName("data[]")
	require.NoError(t, err)
	dv, err := data0.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi there"), dv.([]byte)[:8])
}

func TestTarModeHandlerRendersHex(t *testing.T) {
	data := archiveWithOneFile("x")
	st := stream.NewFromBytes(data)
	p := tar.New(st)

	mode, err := p.Path("/file[0]/mode")
	require.NoError(t, err)
	disp, err := mode.HumanDisplay()
	require.NoError(t, err)
	assert.Contains(t, disp, "0x")
}

func archiveWithFiles(contents ...string) []byte {
	var out []byte
	for i, content := range contents {
		out = append(out, ustarHeader(fmt.Sprintf("file%d.txt", i), int64(len(content)))...)
		out = append(out, padTo512([]byte(content))...)
	}
	out = append(out, make([]byte, 512)...) // terminating zero block
	out = append(out, make([]byte, 512)...)
	return out
}

func TestTarThreeFilesOrderedAndLastOfBase(t *testing.T) {
	data := archiveWithFiles("aaa", "bb", "c")
	st := stream.NewFromBytes(data)
	p := tar.New(st)

	ok, reason := p.Validate()
	require.True(t, ok, reason)

	for i, want := range []string{"file0.txt", "file1.txt", "file2.txt"} {
		name, err := p.Path(fmt.Sprintf("/file[%d]/name", i))
		require.NoError(t, err)
		nv, err := name.Value()
		require.NoError(t, err)
		assert.Equal(t, want, nv)
	}

	last, err := p.ChildByName("file[]")
	require.NoError(t, err)
	assert.Equal(t, "file[2]", last.Name())

	lastName, err := p.Path("/file[]/name")
	require.NoError(t, err)
	lv, err := lastName.Value()
	require.NoError(t, err)
	assert.Equal(t, "file2.txt", lv)
}

func TestTarRejectsMissingMagic(t *testing.T) {
	data := make([]byte, 512)
	st := stream.NewFromBytes(data)
	p := tar.New(st)
	ok, reason := p.Validate()
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

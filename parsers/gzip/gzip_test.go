package gzip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgnsk/binfield/parsers/gzip"
	"github.com/mgnsk/binfield/stream"
)

func member(flags byte, filename string) []byte {
	b := []byte{
		0x1f, 0x8b, // magic
		8,     // method: deflate
		flags, // flags
		0, 0, 0, 0, // mtime
		2, // extra_flags
		3, // os: unix
	}
	if filename != "" {
		b = append(b, []byte(filename)...)
		b = append(b, 0)
	}
	b = append(b, []byte("payload")...)
	return b
}

func TestGzipWithFilename(t *testing.T) {
	data := member(1<<3, "hello.txt")
	st := stream.NewFromBytes(data)
	p := gzip.New(st)

	ok, reason := p.Validate()
	require.True(t, ok, reason)

	method, err := p.ChildByName("method")
	require.NoError(t, err)
	v, err := method.Value()
	require.NoError(t, err)
	assert.EqualValues(t, 8, v)

	fn, err := p.ChildByName("filename")
	require.NoError(t, err)
	fv, err := fn.Value()
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", fv)

	payload, err := p.ChildByName("compressed_payload")
	require.NoError(t, err)
	pv, err := payload.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), pv)
}

func TestGzipWithoutFilename(t *testing.T) {
	data := member(0, "")
	st := stream.NewFromBytes(data)
	p := gzip.New(st)

	ok, _ := p.Validate()
	require.True(t, ok)

	_, err := p.ChildByName("filename")
	assert.Error(t, err)

	payload, err := p.ChildByName("compressed_payload")
	require.NoError(t, err)
	pv, err := payload.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), pv)
}

func TestGzipMtimeDisplay(t *testing.T) {
	data := member(0, "")
	st := stream.NewFromBytes(data)
	p := gzip.New(st)

	mtime, err := p.ChildByName("mtime")
	require.NoError(t, err)
	disp, err := mtime.HumanDisplay()
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01 00:00:00", disp)
}

func TestGzipRejectsBadMagic(t *testing.T) {
	data := []byte{0, 0, 8, 0, 0, 0, 0, 0, 2, 3}
	st := stream.NewFromBytes(data)
	p := gzip.New(st)
	ok, reason := p.Validate()
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

package stream

import "errors"

// ErrUnderRun is returned when a read would need bits past the end of
// the stream's known size.
var ErrUnderRun = errors.New("stream: read past end of stream")

// ErrNotByteAligned is returned by ReadBytes/ReadString when the
// requested address is not a multiple of 8 bits.
var ErrNotByteAligned = errors.New("stream: address is not byte aligned")

// ErrClosed is returned by reads issued after the stream has been
// closed.
var ErrClosed = errors.New("stream: closed")

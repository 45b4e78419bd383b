// Package gzip parses the RFC 1952 gzip member header: magic, method,
// flags, mtime, and (when FNAME is set) the original filename, followed
// by the compressed payload as an opaque trailing span. Grounded on
// original_source/hachoir-parser's archive/gzip_parser.py field order.
package gzip

import (
	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

const (
	flagFNAME = 1 << 3
)

var tags = binfield.Tags{
	ID:          "gzip",
	Category:    "archive",
	MIMETypes:   []string{"application/gzip", "application/x-gzip"},
	Extensions:  []string{"gz", "tgz"},
	Magic:       []binfield.MagicTag{{Bytes: []byte{0x1f, 0x8b}, BitOffset: 0}},
	MinSizeBits: 10 * 8,
	Description: "gzip compressed archive",
}

func init() {
	binfield.Register(tags, New)
}

// New constructs a gzip Parser bound to st.
func New(st *stream.Stream) *binfield.Parser {
	return binfield.NewParser(st, binfield.ParserOpts{
		Tags:   tags,
		Endian: stream.LittleEndian,
	}, layout)
}

func layout(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	magic, err := binfield.RawBytes(fs, "magic", 2)
	if err != nil {
		return err
	}
	if err := yield(magic); err != nil {
		return err
	}

	method, err := binfield.UInt8(fs, "method")
	if err != nil {
		return err
	}
	if err := yield(method); err != nil {
		return err
	}

	flags, err := binfield.UInt8(fs, "flags")
	if err != nil {
		return err
	}
	if err := yield(flags); err != nil {
		return err
	}
	flagsVal, err := flags.Value()
	if err != nil {
		return err
	}
	flagByte, _ := flagsVal.(int64)

	mtime, err := binfield.UInt32(fs, "mtime")
	if err != nil {
		return err
	}
	if err := binfield.AttachHandler(mtime, binfield.TimestampUnixHandler); err != nil {
		return err
	}
	if err := yield(mtime); err != nil {
		return err
	}

	extraFlags, err := binfield.UInt8(fs, "extra_flags")
	if err != nil {
		return err
	}
	if err := yield(extraFlags); err != nil {
		return err
	}

	osField, err := binfield.UInt8(fs, "os")
	if err != nil {
		return err
	}
	if err := yield(osField); err != nil {
		return err
	}

	if flagByte&flagFNAME != 0 {
		filename, err := binfield.CString(fs, "filename", stream.ASCII)
		if err != nil {
			return err
		}
		if err := yield(filename); err != nil {
			return err
		}
	}

	total, ok := fs.Stream().SizeBits()
	if !ok {
		return nil
	}
	addr, err := fs.ChildByName("os")
	if err != nil {
		return err
	}
	payloadStart := addr.Address() + addr.Size()
	if flagByte&flagFNAME != 0 {
		fn, err := fs.ChildByName("filename")
		if err != nil {
			return err
		}
		payloadStart = fn.Address() + fn.Size()
	}
	payloadBits := total - payloadStart
	if payloadBits <= 0 {
		return nil
	}
	payload, err := binfield.RawBytes(fs, "compressed_payload", payloadBits/8)
	if err != nil {
		return err
	}
	return yield(payload)
}

// Package tar parses a POSIX ustar archive as a repeated sequence of
// 512-byte headers (each optionally followed by its data, rounded up to
// a 512-byte block) terminated by two all-zero blocks. Grounded on
// original_source/hachoir-parser's archive/tar.py field layout.
package tar

import (
	"strconv"
	"strings"

	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

const blockSize = 512

var tags = binfield.Tags{
	ID:          "tar",
	Category:    "archive",
	MIMETypes:   []string{"application/x-tar"},
	Extensions:  []string{"tar"},
	MinSizeBits: blockSize * 8,
	Description: "POSIX tar archive",
}

func init() {
	binfield.Register(tags, New)
}

// New constructs a tar Parser bound to st. Unlike gzip/bmp, tar has no
// magic signature at offset 0 (the "ustar" marker lives inside the
// first header at offset 257), so Validate relies on the ValidateFunc
// below instead of a Magic entry.
func New(st *stream.Stream) *binfield.Parser {
	return binfield.NewParser(st, binfield.ParserOpts{
		Tags:     tags,
		Endian:   stream.BigEndian,
		Validate: validate,
	}, layout)
}

func validate(p *binfield.Parser) (bool, string) {
	magic, err := p.Stream().ReadBytes(257*8, 5)
	if err != nil || string(magic) != "ustar" {
		return false, "missing ustar magic at offset 257"
	}
	return true, ""
}

func layout(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	total, known := fs.Stream().SizeBits()
	pos := fs.Address()
	for {
		if known && pos+blockSize*8 > total {
			return nil
		}
		zero, err := fs.Stream().ReadBytes(pos, blockSize)
		if err != nil {
			return err
		}
		if isAllZero(zero) {
			return nil
		}

		entry, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{
			Name: "file[]", SizeBits: blockSize * 8, Endian: fs.Endian(),
		}, header)
		if err != nil {
			return err
		}
		if err := yield(entry); err != nil {
			return err
		}
		pos += entry.Size()

		sizeField, err := entry.ChildByName("size")
		if err != nil {
			return err
		}
		sizeVal, err := sizeField.Value()
		if err != nil {
			return err
		}
		fileSize := octalToInt(sizeVal.(string))
		paddedBits := ((fileSize + blockSize - 1) / blockSize) * blockSize * 8
		if paddedBits > 0 {
			data, err := binfield.RawBytes(fs, "data[]", paddedBits/8)
			if err != nil {
				return err
			}
			if err := yield(data); err != nil {
				return err
			}
			pos += paddedBits
		}
	}
}

func header(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	for _, f := range []struct {
		name   string
		length int64
	}{
		{"name", 100},
		{"mode", 8},
		{"uid", 8},
		{"gid", 8},
		{"size", 12},
		{"mtime", 12},
		{"checksum", 8},
		{"typeflag", 1},
		{"linkname", 100},
		{"magic", 6},
		{"version", 2},
		{"uname", 32},
		{"gname", 32},
		{"devmajor", 8},
		{"devminor", 8},
		{"prefix", 155},
	} {
		field, err := binfield.String(fs, f.name, f.length, stream.ASCII, " \x00")
		if err != nil {
			return err
		}
		if f.name == "mode" {
			if err := binfield.AttachHandler(field, modeHandler); err != nil {
				return err
			}
		}
		if err := yield(field); err != nil {
			return err
		}
	}
	pad, err := binfield.NullBytes(fs, "padding", 12)
	if err != nil {
		return err
	}
	return yield(pad)
}

// modeHandler renders the octal mode string as hexadecimal, exercising
// the hex display handler against a tar field (backs S6).
func modeHandler(f binfield.Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n := octalToInt(v.(string))
	return binfield.Hexadecimal(uint64(n), 32), nil
}

func octalToInt(s string) int64 {
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return 0
	}
	return n
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

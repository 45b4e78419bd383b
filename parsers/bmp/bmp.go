// Package bmp parses a Windows BITMAPFILEHEADER followed by a
// BITMAPINFOHEADER, little-endian throughout. Grounded on
// original_source/hachoir-parser's image/bmp.py field layout.
package bmp

import (
	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

var tags = binfield.Tags{
	ID:          "bmp",
	Category:    "image",
	MIMETypes:   []string{"image/bmp", "image/x-bmp"},
	Extensions:  []string{"bmp", "dib"},
	Magic:       []binfield.MagicTag{{Bytes: []byte{'B', 'M'}, BitOffset: 0}},
	MinSizeBits: (14 + 40) * 8,
	Description: "Windows bitmap image",
}

func init() {
	binfield.Register(tags, New)
}

// New constructs a bmp Parser bound to st.
func New(st *stream.Stream) *binfield.Parser {
	return binfield.NewParser(st, binfield.ParserOpts{
		Tags:   tags,
		Endian: stream.LittleEndian,
	}, layout)
}

func layout(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	header, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{
		Name: "file_header", SizeBits: 14 * 8, Endian: fs.Endian(),
	}, fileHeader)
	if err != nil {
		return err
	}
	if err := yield(header); err != nil {
		return err
	}

	info, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{
		Name: "info_header", SizeBits: 40 * 8, Endian: fs.Endian(),
	}, infoHeader)
	if err != nil {
		return err
	}
	return yield(info)
}

func fileHeader(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	for _, spec := range []struct {
		name string
		ctor func(*binfield.GenericFieldSet, string) (*binfield.IntegerField, error)
	}{
		{"signature", binfield.UInt16},
		{"file_size", binfield.UInt32},
		{"reserved1", binfield.UInt16},
		{"reserved2", binfield.UInt16},
		{"pixel_offset", binfield.UInt32},
	} {
		f, err := spec.ctor(fs, spec.name)
		if err != nil {
			return err
		}
		if err := yield(f); err != nil {
			return err
		}
	}
	return nil
}

func infoHeader(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	headerSize, err := binfield.UInt32(fs, "header_size")
	if err != nil {
		return err
	}
	if err := yield(headerSize); err != nil {
		return err
	}

	width, err := binfield.Int32(fs, "width")
	if err != nil {
		return err
	}
	if err := yield(width); err != nil {
		return err
	}

	height, err := binfield.Int32(fs, "height")
	if err != nil {
		return err
	}
	if err := yield(height); err != nil {
		return err
	}

	for _, spec := range []struct {
		name string
		ctor func(*binfield.GenericFieldSet, string) (*binfield.IntegerField, error)
	}{
		{"planes", binfield.UInt16},
		{"bit_count", binfield.UInt16},
		{"compression", binfield.UInt32},
		{"image_size", binfield.UInt32},
		{"x_pixels_per_meter", binfield.UInt32},
		{"y_pixels_per_meter", binfield.UInt32},
		{"colors_used", binfield.UInt32},
		{"colors_important", binfield.UInt32},
	} {
		f, err := spec.ctor(fs, spec.name)
		if err != nil {
			return err
		}
		if err := yield(f); err != nil {
			return err
		}
	}
	return nil
}

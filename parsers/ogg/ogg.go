// Package ogg parses an Ogg container page: the fixed 27-byte header,
// a lacing table of Xiph-style variable-length packet sizes, and the
// packet payload chunks those sizes describe. Grounded on
// original_source/hachoir-parser's container/ogg.py OggPage/Lacing.
//
// Each lacing entry is represented as its own small field set of
// "byte[]" children (one byte per 0xFF continuation, terminated by a
// byte under 0xFF) rather than a single scalar field, since this
// engine's public API has no seam for a leaf field with custom
// multi-byte decode logic outside the core package — the tree shape
// still matches hachoir's one-size-per-packet structure.
package ogg

import (
	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

var tags = binfield.Tags{
	ID:          "ogg",
	Category:    "container",
	MIMETypes:   []string{"application/ogg", "audio/ogg"},
	Extensions:  []string{"ogg", "ogm"},
	Magic:       []binfield.MagicTag{{Bytes: []byte("OggS"), BitOffset: 0}},
	MinSizeBits: 27 * 8,
	Description: "Ogg container page",
}

func init() {
	binfield.Register(tags, New)
}

// New constructs an ogg Parser bound to st. Only the first page is
// parsed; a full stream of concatenated pages is out of scope for this
// sample.
func New(st *stream.Stream) *binfield.Parser {
	return binfield.NewParser(st, binfield.ParserOpts{
		Tags:   tags,
		Endian: stream.LittleEndian,
	}, page)
}

func page(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	capturePattern, err := binfield.String(fs, "capture_pattern", 4, stream.ASCII, "")
	if err != nil {
		return err
	}
	if err := yield(capturePattern); err != nil {
		return err
	}

	version, err := binfield.UInt8(fs, "stream_structure_version")
	if err != nil {
		return err
	}
	if err := yield(version); err != nil {
		return err
	}

	for _, name := range []string{"continued_packet", "first_page", "last_page"} {
		bit, err := binfield.Bit(fs, name)
		if err != nil {
			return err
		}
		if err := yield(bit); err != nil {
			return err
		}
	}
	unused, err := binfield.NullBits(fs, "unused", 5)
	if err != nil {
		return err
	}
	if err := yield(unused); err != nil {
		return err
	}

	granule, err := binfield.UInt64(fs, "abs_granule_pos")
	if err != nil {
		return err
	}
	if err := yield(granule); err != nil {
		return err
	}

	for _, name := range []string{"serial", "page", "checksum"} {
		f, err := binfield.UInt32(fs, name)
		if err != nil {
			return err
		}
		if err := yield(f); err != nil {
			return err
		}
	}

	lacingSize, err := binfield.UInt8(fs, "lacing_size")
	if err != nil {
		return err
	}
	if err := yield(lacingSize); err != nil {
		return err
	}
	sizeVal, err := lacingSize.Value()
	if err != nil {
		return err
	}
	nLacingBytes, _ := sizeVal.(int64)
	if nLacingBytes == 0 {
		return nil
	}

	lacing, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{
		Name: "lacing", SizeBits: nLacingBytes * 8, Endian: fs.Endian(),
	}, func(lfs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		return lacingEntries(lfs, yield, nLacingBytes)
	})
	if err != nil {
		return err
	}
	if err := yield(lacing); err != nil {
		return err
	}

	it := lacing.Array("size")
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		packetSize, err := xiphValue(entry.(binfield.FieldSet))
		if err != nil {
			return err
		}
		if packetSize == 0 {
			continue
		}
		chunk, err := binfield.RawBytes(fs, "chunk[]", packetSize)
		if err != nil {
			return err
		}
		if err := yield(chunk); err != nil {
			return err
		}
	}
	return nil
}

func lacingEntries(fs *binfield.GenericFieldSet, yield binfield.YieldFunc, totalBytes int64) error {
	var consumed int64
	for consumed < totalBytes {
		entry, n, err := xiphEntry(fs, "size[]", totalBytes-consumed)
		if err != nil {
			return err
		}
		consumed += n
		if err := yield(entry); err != nil {
			return err
		}
	}
	return nil
}

// xiphEntry reads one Xiph-style size: a run of 0xFF continuation
// bytes ended by a byte under 0xFF (or by exhausting budget), returned
// as a field set of "byte[]" children, plus the byte count consumed.
func xiphEntry(parent *binfield.GenericFieldSet, name string, budget int64) (*binfield.GenericFieldSet, int64, error) {
	var consumedBytes int64
	entry, err := binfield.NewFieldSet(parent, binfield.FieldSetOpts{
		Name: name, SizeBits: -1, Endian: parent.Endian(),
	}, func(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		for consumedBytes < budget {
			b, err := binfield.UInt8(fs, "byte[]")
			if err != nil {
				return err
			}
			consumedBytes++
			if err := yield(b); err != nil {
				return err
			}
			v, err := b.Value()
			if err != nil {
				return err
			}
			n, _ := v.(int64)
			if n != 0xff {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	_ = entry.Size() // force completion so the caller's running total is accurate
	return entry, consumedBytes, nil
}

func xiphValue(fs binfield.FieldSet) (int64, error) {
	var total int64
	it := fs.Array("byte")
	for {
		f, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		v, err := f.Value()
		if err != nil {
			return 0, err
		}
		n, _ := v.(int64)
		total += n
	}
	return total, nil
}

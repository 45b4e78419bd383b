// Package iso9660 parses the primary volume descriptor of an ISO 9660
// (CD-ROM) file system: the 16 reserved system-area sectors are
// skipped, then the descriptor at sector 16 is read. Grounded on
// original_source/hachoir-parser's file_system/iso9660.py, scoped down
// to the primary volume descriptor (the full parser also walks path
// tables and directory records, out of scope for this sample).
package iso9660

import (
	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

const (
	sectorSize  = 2048
	sectorBits  = sectorSize * 8
	magicOffset = 16 * sectorBits
)

var signature = []byte{0x01, 'C', 'D', '0', '0', '1'}

var tags = binfield.Tags{
	ID:          "iso9660",
	Category:    "file_system",
	MIMETypes:   []string{"application/x-iso9660-image"},
	Extensions:  []string{"iso"},
	Magic:       []binfield.MagicTag{{Bytes: signature, BitOffset: magicOffset}},
	MinSizeBits: (16*sectorSize + sectorSize) * 8,
	Description: "ISO 9660 file system",
}

func init() {
	binfield.Register(tags, New)
}

// New constructs an iso9660 Parser bound to st.
func New(st *stream.Stream) *binfield.Parser {
	return binfield.NewParser(st, binfield.ParserOpts{
		Tags:     tags,
		Endian:   stream.LittleEndian,
		Validate: validate,
	}, layout)
}

func validate(p *binfield.Parser) (bool, string) {
	got, err := p.Stream().ReadBytes(magicOffset, int64(len(signature)))
	if err != nil || !bytesEqual(got, signature) {
		return false, "Invalid signature"
	}
	return true, ""
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func layout(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	systemArea, err := binfield.RawBytes(fs, "system_area", 16*sectorSize)
	if err != nil {
		return err
	}
	if err := yield(systemArea); err != nil {
		return err
	}

	descType, err := binfield.UInt8(fs, "type")
	if err != nil {
		return err
	}
	if err := yield(descType); err != nil {
		return err
	}

	sig, err := binfield.RawBytes(fs, "signature", int64(len(signature))-1)
	if err != nil {
		return err
	}
	if err := yield(sig); err != nil {
		return err
	}

	version, err := binfield.UInt8(fs, "version")
	if err != nil {
		return err
	}
	if err := yield(version); err != nil {
		return err
	}

	pvd, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{
		Name:     "primary_volume_descriptor",
		SizeBits: (sectorSize - 7) * 8,
		Endian:   fs.Endian(),
	}, primaryVolumeDescriptor)
	if err != nil {
		return err
	}
	return yield(pvd)
}

func primaryVolumeDescriptor(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
	unused, err := binfield.NullBytes(fs, "unused[]", 1)
	if err != nil {
		return err
	}
	if err := yield(unused); err != nil {
		return err
	}

	systemID, err := binfield.String(fs, "system_id", 32, stream.ASCII, " ")
	if err != nil {
		return err
	}
	if err := yield(systemID); err != nil {
		return err
	}

	volumeID, err := binfield.String(fs, "volume_id", 32, stream.ASCII, " ")
	if err != nil {
		return err
	}
	if err := yield(volumeID); err != nil {
		return err
	}

	unused2, err := binfield.NullBytes(fs, "unused[]", 8)
	if err != nil {
		return err
	}
	if err := yield(unused2); err != nil {
		return err
	}

	spaceSizeL, err := binfield.UInt32(fs, "space_size_l")
	if err != nil {
		return err
	}
	if err := yield(spaceSizeL); err != nil {
		return err
	}

	spaceSizeM, err := binfield.IntegerEndian(fs, "space_size_m", 32, false, stream.BigEndian)
	if err != nil {
		return err
	}
	if err := yield(spaceSizeM); err != nil {
		return err
	}

	const pvdBytes = sectorSize - 7
	const consumed = 1 + 32 + 32 + 8 + 4 + 4
	trailer, err := binfield.RawBytes(fs, "trailer", pvdBytes-consumed)
	if err != nil {
		return err
	}
	return yield(trailer)
}

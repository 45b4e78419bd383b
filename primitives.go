package binfield

import (
	"fmt"
	"strings"

	"github.com/mgnsk/binfield/stream"
)

// newLeaf wires the bookkeeping common to every primitive: it reserves
// the next address from parent, builds the shared base, and lets the
// caller attach computeValue/rawFn.
func newLeaf(parent *GenericFieldSet, name string, sizeBits int64, endian stream.Endian, description string) (*base, error) {
	addr, err := parent.nextAddress()
	if err != nil {
		return nil, err
	}
	if parent.explicitSize >= 0 && addr+sizeBits-parent.address > parent.explicitSize {
		return nil, fmt.Errorf("%w: %s", ErrSizeOverflow, name)
	}
	b := &base{
		name:        name,
		parent:      parent,
		address:     addr,
		size:        sizeBits,
		description: description,
		endian:      endian,
		streamRef:   parent.streamRef,
	}
	return b, nil
}

// BoolField is the Bit primitive: a single-bit boolean.
type BoolField struct{ base }

// Bit reads a single bit as a boolean.
func Bit(parent *GenericFieldSet, name string) (*BoolField, error) {
	b, err := newLeaf(parent, name, 1, parent.endian, "")
	if err != nil {
		return nil, err
	}
	f := &BoolField{base: *b}
	f.self = f
	f.computeValue = func() (interface{}, error) {
		v, err := f.streamRef.ReadBits(f.address, 1, f.endian)
		if err != nil {
			return nil, err
		}
		return v != 0, nil
	}
	f.rawFn = func(Field) (string, error) {
		v, err := f.Value()
		if err != nil {
			return "", err
		}
		if v.(bool) {
			return "1", nil
		}
		return "0", nil
	}
	return f, nil
}

// IntegerField backs Bits(n), UIntN and IntN: any 1-64 bit sized
// integer, signed or unsigned.
type IntegerField struct {
	base
	signed bool
	width  uint
}

// Signed reports whether this integer is interpreted as two's
// complement.
func (f *IntegerField) Signed() bool { return f.signed }

// Bits reads an n-bit (1-63) unsigned bitfield, endian inherited from
// parent.
func Bits(parent *GenericFieldSet, name string, n uint) (*IntegerField, error) {
	if n < 1 || n > 63 {
		return nil, &ConstructionError{Name: name, Reason: fmt.Sprintf("Bits width %d out of range [1,63]", n)}
	}
	return newInteger(parent, name, n, false, parent.endian)
}

// IntegerEndian constructs an arbitrary-width integer field with an
// explicit endian, overriding the parent's default.
func IntegerEndian(parent *GenericFieldSet, name string, bitSize uint, signed bool, endian stream.Endian) (*IntegerField, error) {
	return newInteger(parent, name, bitSize, signed, endian)
}

func newInteger(parent *GenericFieldSet, name string, bitSize uint, signed bool, endian stream.Endian) (*IntegerField, error) {
	if bitSize < 1 || bitSize > 64 {
		return nil, &ConstructionError{Name: name, Reason: fmt.Sprintf("integer width %d out of range [1,64]", bitSize)}
	}
	b, err := newLeaf(parent, name, int64(bitSize), endian, "")
	if err != nil {
		return nil, err
	}
	f := &IntegerField{base: *b, signed: signed, width: bitSize}
	f.self = f
	f.computeValue = func() (interface{}, error) {
		return f.streamRef.ReadInteger(f.address, f.signed, f.width, f.endian)
	}
	f.rawFn = func(Field) (string, error) {
		v, err := f.Value()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil
	}
	return f, nil
}

func uintCtor(width uint) func(*GenericFieldSet, string) (*IntegerField, error) {
	return func(parent *GenericFieldSet, name string) (*IntegerField, error) {
		return newInteger(parent, name, width, false, parent.endian)
	}
}

func intCtor(width uint) func(*GenericFieldSet, string) (*IntegerField, error) {
	return func(parent *GenericFieldSet, name string) (*IntegerField, error) {
		return newInteger(parent, name, width, true, parent.endian)
	}
}

// UIntN / IntN family, N in {8,16,24,32,64}, endian inherited from the
// nearest ancestor's default (invariant 5 of spec §3).
var (
	UInt8  = uintCtor(8)
	UInt16 = uintCtor(16)
	UInt24 = uintCtor(24)
	UInt32 = uintCtor(32)
	UInt64 = uintCtor(64)

	Int8  = intCtor(8)
	Int16 = intCtor(16)
	Int24 = intCtor(24)
	Int32 = intCtor(32)
	Int64 = intCtor(64)
)

// NullField backs NullBits/NullBytes: a field expected to always read
// as zero.
type NullField struct {
	base
	parentFS *GenericFieldSet
}

// NullBits reads an n-bit field expected to be all zero; a Warning is
// recorded on parent if the actual read is non-zero.
func NullBits(parent *GenericFieldSet, name string, n uint) (*NullField, error) {
	return newNull(parent, name, int64(n))
}

// NullBytes reads an n-byte field expected to be all zero.
func NullBytes(parent *GenericFieldSet, name string, n int64) (*NullField, error) {
	return newNull(parent, name, n*8)
}

func newNull(parent *GenericFieldSet, name string, sizeBits int64) (*NullField, error) {
	b, err := newLeaf(parent, name, sizeBits, parent.endian, "padding")
	if err != nil {
		return nil, err
	}
	f := &NullField{base: *b, parentFS: parent}
	f.self = f
	f.computeValue = func() (interface{}, error) {
		n := uint(f.size)
		if n > 56 && f.size%8 == 0 {
			v, err := f.streamRef.ReadBytes(f.address, f.size/8)
			if err != nil {
				return nil, err
			}
			for _, c := range v {
				if c != 0 {
					f.parentFS.addWarning(f.name, fmt.Errorf("%w: non-zero padding", ErrFieldConstruction))
					break
				}
			}
			return v, nil
		}
		v, err := f.streamRef.ReadBits(f.address, n, f.endian)
		if err != nil {
			return nil, err
		}
		if v != 0 {
			f.parentFS.addWarning(f.name, fmt.Errorf("%w: non-zero padding", ErrFieldConstruction))
		}
		return v, nil
	}
	f.rawFn = func(Field) (string, error) {
		return fmt.Sprintf("%d padding bits", f.size), nil
	}
	return f, nil
}

// RawBytesField is an uninterpreted byte span; its display truncates
// to Settings.MaxByteLength bytes, grounded on hachoir's
// byte_field.py RawBytes.createDisplay truncation-with-"(...)" model.
type RawBytesField struct{ base }

// RawBytes reads n uninterpreted bytes.
func RawBytes(parent *GenericFieldSet, name string, n int64) (*RawBytesField, error) {
	b, err := newLeaf(parent, name, n*8, parent.endian, "")
	if err != nil {
		return nil, err
	}
	f := &RawBytesField{base: *b}
	f.self = f
	f.computeValue = func() (interface{}, error) {
		return f.streamRef.ReadBytes(f.address, f.size/8)
	}
	f.rawFn = func(Field) (string, error) {
		v, err := f.Value()
		if err != nil {
			return "", err
		}
		return rawBytesDisplay(v.([]byte), CurrentSettings().MaxByteLength), nil
	}
	return f, nil
}

func rawBytesDisplay(b []byte, maxLen int) string {
	truncated := false
	if maxLen > 0 && len(b) > maxLen {
		b = b[:maxLen]
		truncated = true
	}
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "\\x%02x", c)
	}
	if truncated {
		sb.WriteString("(...)")
	}
	return sb.String()
}

// StringField backs String/CString/PascalString{8,16,32}: decoded
// text of one of several length conventions.
type StringField struct{ base }

// String reads a fixed-length string of the given charset. If strip is
// non-empty, those characters (e.g. " \x00") are trimmed from both
// ends of the decoded text, mirroring hachoir's optional strip param.
func String(parent *GenericFieldSet, name string, length int64, charset stream.Charset, strip string) (*StringField, error) {
	addr, err := parent.nextAddress()
	if err != nil {
		return nil, err
	}
	text, bits, err := parent.streamRef.ReadString(addr, stream.StringReadOptions{Charset: charset, MaxBytes: length})
	if err != nil {
		return nil, err
	}
	if strip != "" {
		text = strings.Trim(text, strip)
	}
	return newStringField(parent, name, addr, bits, charset, text)
}

// CString reads a NUL-terminated string (terminator excluded from the
// value but included in the field's size).
func CString(parent *GenericFieldSet, name string, charset stream.Charset) (*StringField, error) {
	addr, err := parent.nextAddress()
	if err != nil {
		return nil, err
	}
	text, bits, err := parent.streamRef.ReadString(addr, stream.StringReadOptions{Charset: charset, MaxBytes: -1, NullTerminated: true})
	if err != nil {
		return nil, err
	}
	return newStringField(parent, name, addr, bits, charset, text)
}

// PascalString8/16/32 read a length-prefixed string: an 8/16/32-bit
// unsigned length (in the field set's endian) followed by that many
// bytes of text.
func PascalString8(parent *GenericFieldSet, name string, charset stream.Charset) (*StringField, error) {
	return pascalString(parent, name, charset, 8)
}

func PascalString16(parent *GenericFieldSet, name string, charset stream.Charset) (*StringField, error) {
	return pascalString(parent, name, charset, 16)
}

func PascalString32(parent *GenericFieldSet, name string, charset stream.Charset) (*StringField, error) {
	return pascalString(parent, name, charset, 32)
}

func pascalString(parent *GenericFieldSet, name string, charset stream.Charset, prefixBits uint) (*StringField, error) {
	addr, err := parent.nextAddress()
	if err != nil {
		return nil, err
	}
	length, err := parent.streamRef.ReadInteger(addr, false, prefixBits, parent.endian)
	if err != nil {
		return nil, err
	}
	textAddr := addr + int64(prefixBits)
	text, bits, err := parent.streamRef.ReadString(textAddr, stream.StringReadOptions{Charset: charset, MaxBytes: length})
	if err != nil {
		return nil, err
	}
	return newStringField(parent, name, addr, int64(prefixBits)+bits, charset, text)
}

func newStringField(parent *GenericFieldSet, name string, addr, sizeBits int64, charset stream.Charset, text string) (*StringField, error) {
	if parent.explicitSize >= 0 && addr+sizeBits-parent.address > parent.explicitSize {
		return nil, fmt.Errorf("%w: %s", ErrSizeOverflow, name)
	}
	f := &StringField{base: base{
		name:      name,
		parent:    parent,
		address:   addr,
		size:      sizeBits,
		endian:    parent.endian,
		streamRef: parent.streamRef,
	}}
	f.self = f
	value := text
	f.computeValue = func() (interface{}, error) { return value, nil }
	f.rawFn = func(Field) (string, error) {
		return "\"" + escapeControlChars(value) + "\"", nil
	}
	_ = charset
	return f, nil
}

// EnumField wraps another field, mapping its integer value to a label
// for display without altering the wrapped value (§4.2: "Enum wrapping
// never alters value, only human_display").
type EnumField struct {
	inner   Field
	mapping map[int64]string
}

// Enum wraps inner with a value-to-label mapping used by HumanDisplay.
func Enum(inner Field, mapping map[int64]string) (*EnumField, error) {
	if inner == nil {
		return nil, &ConstructionError{Name: "<enum>", Reason: "nil inner field"}
	}
	return &EnumField{inner: inner, mapping: mapping}, nil
}

func (e *EnumField) Name() string              { return e.inner.Name() }
func (e *EnumField) Parent() FieldSet          { return e.inner.Parent() }
func (e *EnumField) Address() int64            { return e.inner.Address() }
func (e *EnumField) Size() int64               { return e.inner.Size() }
func (e *EnumField) Description() string       { return e.inner.Description() }
func (e *EnumField) Value() (interface{}, error) { return e.inner.Value() }
func (e *EnumField) RawDisplay() (string, error) { return e.inner.RawDisplay() }
func (e *EnumField) Endian() stream.Endian     { return e.inner.Endian() }

func (e *EnumField) HumanDisplay() (string, error) {
	v, err := e.inner.Value()
	if err != nil {
		return "", err
	}
	key, ok := toInt64(v)
	if ok {
		if label, found := e.mapping[key]; found {
			return label, nil
		}
	}
	raw, err := e.inner.RawDisplay()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (unknown)", raw), nil
}

// setName forwards "[]" auto-numbering renames to the wrapped field so
// an enum-wrapped field still participates in array naming.
func (e *EnumField) setName(s string) {
	if nf, ok := e.inner.(namer); ok {
		nf.setName(s)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

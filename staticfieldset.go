package binfield

// StaticKind selects which primitive a StaticFieldDescriptor produces.
type StaticKind uint8

const (
	KindBit StaticKind = iota
	KindBits
	KindNullBits
)

// StaticFieldDescriptor is one entry of a StaticFieldSet's fixed tuple
// layout, grounded on hachoir's msdos.py MSDOSFileAttr: a sequence of
// (type, name, width) tuples describing a packed bitfield record whose
// total size is known up front. NewStaticFieldSet turns the descriptors
// into a fixed GeneratorFunc, so callers write no generator of their own.
type StaticFieldDescriptor struct {
	Kind  StaticKind
	Name  string
	Width uint // bit width; ignored for KindBit (always 1)
}

// NewStaticFieldSet builds a composite field whose children are a
// fixed, statically known tuple of bit-level descriptors — the C2
// StaticFieldSet primitive.
func NewStaticFieldSet(parent *GenericFieldSet, name string, descriptors []StaticFieldDescriptor) (*GenericFieldSet, error) {
	var total int64
	for _, d := range descriptors {
		if d.Kind == KindBit {
			total++
		} else {
			total += int64(d.Width)
		}
	}
	fn := func(fs *GenericFieldSet, yield YieldFunc) error {
		for _, d := range descriptors {
			var f Field
			var err error
			switch d.Kind {
			case KindBit:
				f, err = Bit(fs, d.Name)
			case KindBits:
				f, err = Bits(fs, d.Name, d.Width)
			case KindNullBits:
				f, err = NullBits(fs, d.Name, d.Width)
			default:
				return &ConstructionError{Name: d.Name, Reason: "unknown static field kind"}
			}
			if err != nil {
				return err
			}
			if err := yield(f); err != nil {
				return err
			}
		}
		return nil
	}
	return NewFieldSet(parent, FieldSetOpts{Name: name, SizeBits: total, Endian: parent.endian}, fn)
}

package binfield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

// newTestRoot builds a root field set over raw bytes with a
// caller-supplied generator, for exercising FieldSet mechanics in
// isolation from any format parser.
func newTestRoot(t *testing.T, data []byte, fn binfield.GeneratorFunc) *binfield.GenericFieldSet {
	t.Helper()
	st := stream.NewFromBytes(data)
	return binfield.NewRootFieldSet(st, binfield.FieldSetOpts{
		Name:     "root",
		SizeBits: -1,
		Endian:   stream.BigEndian,
	}, fn)
}

func TestContiguityAndArrayNaming(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	root := newTestRoot(t, data, func(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		for i := 0; i < 3; i++ {
			f, err := binfield.UInt8(fs, "file[]")
			if err != nil {
				return err
			}
			if err := yield(f); err != nil {
				return err
			}
		}
		return nil
	})

	assert.Empty(t, root.Warnings())

	names := []string{"file[0]", "file[1]", "file[2]"}
	for i, name := range names {
		f, err := root.ChildByIndex(i)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
		assert.EqualValues(t, i*8, f.Address())
		assert.EqualValues(t, 8, f.Size())
	}
	assert.EqualValues(t, 24, root.Size())
	assert.True(t, root.Complete())

	last, err := root.ChildByName("file[]")
	require.NoError(t, err)
	assert.Equal(t, "file[2]", last.Name())
}

func TestLazyBoundedness(t *testing.T) {
	produced := 0
	data := make([]byte, 10)
	root := newTestRoot(t, data, func(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		for i := 0; i < 10; i++ {
			f, err := binfield.UInt8(fs, "c[]")
			if err != nil {
				return err
			}
			produced++
			if err := yield(f); err != nil {
				return err
			}
		}
		return nil
	})

	f, err := root.ChildByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, "c[2]", f.Name())
	// Exactly c[0..2] were produced; c[3..9] must remain unmaterialized.
	assert.Equal(t, 3, produced)
	assert.Equal(t, 3, root.FieldCount())
}

func TestTruncationWarningOnUnderRun(t *testing.T) {
	data := []byte{0xAA} // only 1 byte available
	root := newTestRoot(t, data, func(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		a, err := binfield.UInt8(fs, "a")
		if err != nil {
			return err
		}
		if err := yield(a); err != nil {
			return err
		}
		// b's declared length overruns the remaining stream; reading
		// its value here (the way a generator reads a sibling's value
		// to decide what comes next) surfaces the under-run during
		// generation rather than lazily after traversal.
		b, err := binfield.RawBytes(fs, "b", 4)
		if err != nil {
			return err
		}
		if _, err := b.Value(); err != nil {
			return err
		}
		return yield(b)
	})

	// Forcing the total size drives the generator to completion.
	_ = root.Size()

	assert.Equal(t, 1, root.FieldCount())
	assert.True(t, root.Complete())
	if assert.Len(t, root.Warnings(), 1) {
		assert.ErrorIs(t, root.Warnings()[0].Err, binfield.ErrUnderRun)
	}
}

func TestPathNavigation(t *testing.T) {
	data := []byte{10, 20, 30}
	root := newTestRoot(t, data, func(fs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
		inner, err := binfield.NewFieldSet(fs, binfield.FieldSetOpts{Name: "group", SizeBits: -1, Endian: fs.Endian()}, func(ifs *binfield.GenericFieldSet, yield binfield.YieldFunc) error {
			for i := 0; i < 2; i++ {
				f, err := binfield.UInt8(ifs, "item[]")
				if err != nil {
					return err
				}
				if err := yield(f); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := yield(inner); err != nil {
			return err
		}
		tail, err := binfield.UInt8(fs, "tail")
		if err != nil {
			return err
		}
		return yield(tail)
	})

	f, err := root.Path("/group/item[1]")
	require.NoError(t, err)
	v, err := f.Value()
	require.NoError(t, err)
	assert.EqualValues(t, 20, v)

	self, err := root.Path("/")
	require.NoError(t, err)
	assert.Equal(t, root, self)

	parent, err := f.Parent().Path("..")
	require.NoError(t, err)
	assert.Equal(t, root, parent)

	_, err = root.Path("/nope")
	assert.ErrorIs(t, err, binfield.ErrFieldNotFound)
}

// Package binfield exposes any structured binary input as a lazily
// materialized, strongly typed tree of fields. Each field knows its
// exact bit offset, bit size, value, and human-readable display; a
// field set is a composite field whose children are produced on
// demand by a caller-supplied generator.
package binfield

import (
	"sync"

	"github.com/mgnsk/binfield/stream"
)

// Field is the common contract of every node in the tree, leaf or
// composite. It corresponds to spec §3's "Field (abstract)".
type Field interface {
	Name() string
	Parent() FieldSet // nil for the root
	Address() int64   // absolute bit address
	Size() int64      // bits; -1 until known for an in-progress composite
	Description() string
	Value() (interface{}, error)
	RawDisplay() (string, error)
	HumanDisplay() (string, error)
	Endian() stream.Endian
}

// FieldSet is a composite Field: an ordered, possibly lazy, sequence
// of children.
type FieldSet interface {
	Field
	ChildByName(name string) (Field, error)
	ChildByIndex(i int) (Field, error)
	Array(base string) *ArrayIter
	Path(path string) (Field, error)
	Complete() bool
	FieldCount() int
	Warnings() []Warning
}

// valueFunc computes a leaf's value by reading the stream. It is
// invoked at most once per field (guarded by sync.Once) per invariant
// 2 of spec §3 ("a field's size, once observed, never changes") and
// the purity invariant of spec §3/§8.
type valueFunc func() (interface{}, error)

// displayFunc renders a field's raw or human display from its already
// resolved value.
type displayFunc func(f Field) (string, error)

// base implements the bookkeeping shared by every concrete Field:
// identity, position, and the write-once value/display caches
// (§5: "A field's cached value/display are written at most once").
type base struct {
	name        string
	parent      FieldSet
	address     int64
	size        int64 // -1 means "unknown, still being produced"
	description string
	endian      stream.Endian
	streamRef   *stream.Stream

	computeValue valueFunc
	rawFn        displayFunc
	humanFn      displayFunc

	valueOnce sync.Once
	value     interface{}
	valueErr  error

	rawOnce sync.Once
	rawStr  string
	rawErr  error

	humanOnce sync.Once
	humanStr  string
	humanErr  error

	self Field // set by the concrete type so display funcs see it
}

func (b *base) Name() string        { return b.name }
func (b *base) Parent() FieldSet    { return b.parent }
func (b *base) Address() int64      { return b.address }
func (b *base) Size() int64         { return b.size }
func (b *base) Description() string { return b.description }
func (b *base) Endian() stream.Endian {
	return b.endian
}

func (b *base) Value() (interface{}, error) {
	b.valueOnce.Do(func() {
		if b.computeValue != nil {
			b.value, b.valueErr = b.computeValue()
		}
	})
	return b.value, b.valueErr
}

func (b *base) RawDisplay() (string, error) {
	b.rawOnce.Do(func() {
		if b.rawFn != nil {
			b.rawStr, b.rawErr = b.rawFn(b.self)
		}
	})
	return b.rawStr, b.rawErr
}

func (b *base) HumanDisplay() (string, error) {
	b.humanOnce.Do(func() {
		if b.humanFn != nil {
			b.humanStr, b.humanErr = b.humanFn(b.self)
			return
		}
		b.humanStr, b.humanErr = b.RawDisplay()
	})
	return b.humanStr, b.humanErr
}

// setName renames the field. Only the owning FieldSet may call this,
// when resolving a "base[]" name into "base[k]" at production time.
func (b *base) setName(name string) {
	b.name = name
}

// namer is implemented by every concrete field so a FieldSet can
// rename a "foo[]" yield into "foo[k]" without widening the public
// Field interface.
type namer interface {
	setName(string)
}

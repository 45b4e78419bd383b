package binfield

import (
	"fmt"
	"strings"

	"github.com/mgnsk/binfield/stream"
)

// GeneratorFunc describes a field set's layout. It is called once, in
// its own goroutine, and yields children in declaration order through
// yield. Returning a non-nil error ends production; if the error is
// one of ErrUnderRun, ErrFormatInvalid or ErrSizeOverflow the field set
// records a Warning and the children already yielded remain valid
// (§4.8); any other error propagates to the set's own caller.
//
// Grounded on Decoder.decode/decodeWithRepeatedFields in
// canboat/decoder.go, which advances a bitOffset cursor across
// pgn.Fields in a plain loop — generalized here from a fixed field
// slice to an arbitrary caller-supplied callback, which is the Go
// substitute spec.md §9 calls for in place of a suspendable generator.
type GeneratorFunc func(fs *GenericFieldSet, yield YieldFunc) error

// YieldFunc hands one more child to the field set. It blocks until the
// consumer has actually requested that child (pull semantics), so a
// generator that yields ten children but whose consumer only reads the
// first two never executes the work for the remaining eight.
type YieldFunc func(Field) error

// errGeneratorAbandoned is returned to a GeneratorFunc's yield call
// when the field set is discarded before the generator finished; it is
// never itself surfaced as a field set error.
var errGeneratorAbandoned = fmt.Errorf("binfield: generator abandoned")

// generator is the goroutine+channel suspendable producer backing one
// GenericFieldSet. No child is computed ahead of the consumer: the
// producer waits for next() before computing each child and blocks
// immediately after sending it, so laziness (§5, §8 property 6) holds.
type generator struct {
	out    chan genResult
	resume chan struct{}
	stop   chan struct{}
	done   bool
}

type genResult struct {
	field Field
	err   error
}

func startGenerator(fs *GenericFieldSet, fn GeneratorFunc) *generator {
	g := &generator{
		out:    make(chan genResult),
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go func() {
		defer close(g.out)
		select {
		case <-g.resume:
		case <-g.stop:
			return
		}
		yield := func(f Field) error {
			select {
			case g.out <- genResult{field: f}:
			case <-g.stop:
				return errGeneratorAbandoned
			}
			select {
			case <-g.resume:
				return nil
			case <-g.stop:
				return errGeneratorAbandoned
			}
		}
		if err := fn(fs, yield); err != nil && err != errGeneratorAbandoned {
			select {
			case g.out <- genResult{err: err}:
			case <-g.stop:
			}
		}
	}()
	return g
}

// next resumes the producer and returns the child it yields, or
// (nil, false, nil) once the generator has terminated cleanly.
func (g *generator) next() (Field, bool, error) {
	if g.done {
		return nil, false, nil
	}
	g.resume <- struct{}{}
	r, ok := <-g.out
	if !ok {
		g.done = true
		return nil, false, nil
	}
	if r.err != nil {
		g.done = true
		return nil, false, r.err
	}
	return r.field, true, nil
}

// abandon lets the producer goroutine exit even if it was never driven
// to completion, so a partially traversed field set doesn't leak a
// blocked goroutine.
func (g *generator) abandon() {
	if g.done {
		return
	}
	g.done = true
	close(g.stop)
}

// GenericFieldSet is the concrete implementation of FieldSet: an
// ordered, lazily produced list of children, the per-base-name counters
// that implement "[]" auto-numbering, and a by-name index rebuilt as
// children arrive.
type GenericFieldSet struct {
	base

	children []Field
	byName   map[string]int
	counters map[string]int

	explicitSize int64 // -1 if the set has no declared size

	gen      *generator
	complete bool
	warnings []Warning

	// sizeThrough/cachedSize memoize the running sum of completed
	// children's sizes so nextAddress doesn't re-walk from scratch.
	sizeThrough int
	cachedSize  int64
}

// Stream returns the bit stream backing this field set's tree (shared,
// read-only, with every other field set of the same parser).
func (fs *GenericFieldSet) Stream() *stream.Stream {
	return fs.streamRef
}

// addWarning records a recoverable condition (e.g. a non-zero NullBits
// read) against this field set without failing the field being built.
func (fs *GenericFieldSet) addWarning(child string, err error) {
	fs.warnings = append(fs.warnings, Warning{Path: fs.name, Child: child, Err: err})
}

// FieldSetOpts parametrizes NewFieldSet/NewRootFieldSet.
type FieldSetOpts struct {
	Name        string
	SizeBits    int64 // -1 if unknown up front
	Description string
	Endian      stream.Endian
}

// NewFieldSet constructs a composite field as the next child of parent,
// addressed immediately after parent's already-materialized children
// (forcing their completion if needed, per invariant 1 of spec §3).
func NewFieldSet(parent *GenericFieldSet, opts FieldSetOpts, fn GeneratorFunc) (*GenericFieldSet, error) {
	addr, err := parent.nextAddress()
	if err != nil {
		return nil, err
	}
	if opts.SizeBits >= 0 && parent.explicitSize >= 0 {
		if addr+opts.SizeBits-parent.address > parent.explicitSize {
			return nil, fmt.Errorf("%w: %s", ErrSizeOverflow, opts.Name)
		}
	}
	fs := newFieldSet(addr, opts)
	fs.parent = parent
	fs.streamRef = parent.streamRef
	if fn != nil {
		fs.gen = startGenerator(fs, fn)
	} else {
		fs.finish(nil)
	}
	return fs, nil
}

// NewRootFieldSet constructs the field set a Parser roots its tree on,
// at absolute address 0, reading from st.
func NewRootFieldSet(st *stream.Stream, opts FieldSetOpts, fn GeneratorFunc) *GenericFieldSet {
	fs := newFieldSet(0, opts)
	fs.streamRef = st
	if fn != nil {
		fs.gen = startGenerator(fs, fn)
	} else {
		fs.finish(nil)
	}
	return fs
}

func newFieldSet(addr int64, opts FieldSetOpts) *GenericFieldSet {
	fs := &GenericFieldSet{
		base: base{
			name:        opts.Name,
			address:     addr,
			size:        -1,
			description: opts.Description,
			endian:      opts.Endian,
		},
		byName:       make(map[string]int),
		counters:     make(map[string]int),
		explicitSize: opts.SizeBits,
	}
	fs.self = fs
	fs.computeValue = func() (interface{}, error) { return fs, nil }
	fs.rawFn = func(Field) (string, error) { return fmt.Sprintf("<%s: %d fields>", fs.name, fs.FieldCount()), nil }
	return fs
}

// nextAddress returns the absolute bit address at which the next child
// would start, forcing completion of any already-materialized but
// still in-progress composite child along the way (§4.3's "consumers
// that need total size drive the generator to completion").
func (fs *GenericFieldSet) nextAddress() (int64, error) {
	for fs.sizeThrough < len(fs.children) {
		c := fs.children[fs.sizeThrough]
		sz := c.Size()
		if sz < 0 {
			return 0, fmt.Errorf("binfield: field %q size still unknown", c.Name())
		}
		fs.cachedSize += sz
		fs.sizeThrough++
	}
	if fs.explicitSize >= 0 && fs.cachedSize > fs.explicitSize {
		return 0, fmt.Errorf("%w: %s", ErrSizeOverflow, fs.name)
	}
	return fs.address + fs.cachedSize, nil
}

// addChild resolves "[]" auto-numbering, checks for duplicate names,
// and appends f to the materialized child list.
func (fs *GenericFieldSet) addChild(f Field) error {
	name := f.Name()
	finalName := name
	if strings.HasSuffix(name, "[]") {
		base := strings.TrimSuffix(name, "[]")
		idx := fs.counters[base]
		fs.counters[base] = idx + 1
		finalName = fmt.Sprintf("%s[%d]", base, idx)
		if nf, ok := f.(namer); ok {
			nf.setName(finalName)
		}
	} else if _, exists := fs.byName[finalName]; exists {
		return &ConstructionError{Name: finalName, Reason: "duplicate field name"}
	}
	fs.byName[finalName] = len(fs.children)
	fs.children = append(fs.children, f)
	return nil
}

// nextChild advances the generator by exactly one step.
func (fs *GenericFieldSet) nextChild() (bool, error) {
	if fs.complete {
		return false, nil
	}
	if fs.gen == nil {
		fs.finish(nil)
		return false, nil
	}
	f, ok, err := fs.gen.next()
	if err != nil {
		fs.finish(err)
		if isRecoverable(err) {
			return false, nil
		}
		return false, err
	}
	if !ok {
		fs.finish(nil)
		return false, nil
	}
	if err := fs.addChild(f); err != nil {
		fs.finish(err)
		return false, err
	}
	return true, nil
}

func (fs *GenericFieldSet) drainAll() error {
	for {
		ok, err := fs.nextChild()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (fs *GenericFieldSet) ensureAtLeast(n int) error {
	for len(fs.children) < n {
		ok, err := fs.nextChild()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return nil
}

// finish marks the set complete, fixes its final size, and — if it
// ended on a recoverable error — records a Warning instead of failing
// the whole tree (§4.8 propagation policy).
func (fs *GenericFieldSet) finish(err error) {
	if fs.complete {
		return
	}
	fs.complete = true
	if fs.gen != nil {
		fs.gen.abandon()
	}
	var total int64
	for _, c := range fs.children {
		if sz := c.Size(); sz > 0 {
			total += sz
		}
	}
	fs.cachedSize = total
	fs.sizeThrough = len(fs.children)
	fs.size = total
	if err != nil && isRecoverable(err) {
		fs.warnings = append(fs.warnings, Warning{Path: fs.name, Child: "", Err: err})
	}
}

// Size forces completion (per §4.3) before reporting the final size.
func (fs *GenericFieldSet) Size() int64 {
	if !fs.complete {
		_ = fs.drainAll()
	}
	return fs.size
}

// Complete reports whether the generator has terminated, without
// forcing it to.
func (fs *GenericFieldSet) Complete() bool {
	return fs.complete
}

// FieldCount returns how many children have been materialized so far.
func (fs *GenericFieldSet) FieldCount() int {
	return len(fs.children)
}

// Warnings returns the recoverable errors truncation absorbed while
// producing this set's children.
func (fs *GenericFieldSet) Warnings() []Warning {
	return fs.warnings
}

// ChildByIndex drives production until the i'th child exists.
func (fs *GenericFieldSet) ChildByIndex(i int) (Field, error) {
	if i < 0 {
		return nil, &PathError{Path: fs.name, Segment: fmt.Sprintf("[%d]", i), Err: ErrFieldNotFound}
	}
	if err := fs.ensureAtLeast(i + 1); err != nil {
		return nil, err
	}
	if i >= len(fs.children) {
		return nil, &PathError{Path: fs.name, Segment: fmt.Sprintf("[%d]", i), Err: ErrFieldNotFound}
	}
	return fs.children[i], nil
}

// ChildByName drives production until a child with the given exact
// name appears, or resolves a "base[]" suffix to the highest
// materialized index of that base (§4.5).
func (fs *GenericFieldSet) ChildByName(name string) (Field, error) {
	if strings.HasSuffix(name, "[]") {
		return fs.lastOfBase(strings.TrimSuffix(name, "[]"))
	}
	if i, ok := fs.byName[name]; ok {
		return fs.children[i], nil
	}
	for {
		ok, err := fs.nextChild()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if i, ok2 := fs.byName[name]; ok2 {
			return fs.children[i], nil
		}
	}
	return nil, &PathError{Path: fs.name, Segment: name, Err: ErrFieldNotFound}
}

func (fs *GenericFieldSet) lastOfBase(base string) (Field, error) {
	if fs.counters[base] == 0 {
		if err := fs.drainAll(); err != nil {
			return nil, err
		}
	}
	if fs.counters[base] == 0 {
		return nil, &PathError{Path: fs.name, Segment: base + "[]", Err: ErrFieldNotFound}
	}
	idx := fs.counters[base] - 1
	name := fmt.Sprintf("%s[%d]", base, idx)
	return fs.children[fs.byName[name]], nil
}

// ArrayIter lazily walks the children sharing one base name, driving
// the generator forward as needed.
type ArrayIter struct {
	fs   *GenericFieldSet
	base string
	idx  int
}

// Array returns a lazy iterator over children named "base[0]",
// "base[1]", … (§4.3's "array access").
func (fs *GenericFieldSet) Array(base string) *ArrayIter {
	return &ArrayIter{fs: fs, base: base}
}

// Next returns the next element, or ok=false once no further element
// of that base is (or ever will be) produced.
func (it *ArrayIter) Next() (Field, bool, error) {
	name := fmt.Sprintf("%s[%d]", it.base, it.idx)
	if i, ok := it.fs.byName[name]; ok {
		it.idx++
		return it.fs.children[i], true, nil
	}
	for {
		ok, err := it.fs.nextChild()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		if i, ok2 := it.fs.byName[name]; ok2 {
			it.idx++
			return it.fs.children[i], true, nil
		}
	}
}

// Path resolves a path expression rooted at fs; see path.go.
func (fs *GenericFieldSet) Path(path string) (Field, error) {
	return Resolve(fs, path)
}

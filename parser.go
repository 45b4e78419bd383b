package binfield

import (
	"bytes"

	"github.com/mgnsk/binfield/stream"
)

// MagicTag is one (literal bytes, bit offset) signature a parser
// expects at a known position, per §4.4's tags record.
type MagicTag struct {
	Bytes     []byte
	BitOffset int64
}

// Tags is a parser's self-description record: id, category, MIME
// types, extensions, magic signatures, minimum size, and a
// description. Mirrors canboat.PGN's self-describing-record shape.
type Tags struct {
	ID          string
	Category    string
	MIMETypes   []string
	Extensions  []string
	Magic       []MagicTag
	MinSizeBits int64
	Description string
}

// ValidateFunc is a parser's extra validation beyond magic/min-size
// matching, e.g. a nested signature check. It must not have side
// effects beyond stream reads (§4.4).
type ValidateFunc func(p *Parser) (bool, string)

// MetaFunc computes a parser-level string (MIME type or description)
// from already-parsed subfields, e.g. "presence of a Theora header
// inside an Ogg container changes the MIME" (§4.4).
type MetaFunc func(p *Parser) string

// ParserOpts parametrizes NewParser.
type ParserOpts struct {
	Tags        Tags
	Endian      stream.Endian
	Validate    ValidateFunc
	MIMEType    MetaFunc
	Description MetaFunc
}

// Parser is a field set rooted on a stream, with format-identification
// tags and a validator (C4). Grounded on canboat.PGN/Decoder.findPGN's
// self-describing-record and matching style.
type Parser struct {
	*GenericFieldSet
	tags     Tags
	stream   *stream.Stream
	validate ValidateFunc
	mimeFn   MetaFunc
	descFn   MetaFunc
}

// Constructor builds a Parser bound to st; implementations are
// registered with the package registry at init() time (C6).
type Constructor func(st *stream.Stream) *Parser

// NewParser constructs the root field set of a format parser. fn
// describes the root layout exactly like any other GeneratorFunc.
func NewParser(st *stream.Stream, opts ParserOpts, fn GeneratorFunc) *Parser {
	root := NewRootFieldSet(st, FieldSetOpts{
		Name:        opts.Tags.ID,
		SizeBits:    -1,
		Description: opts.Tags.Description,
		Endian:      opts.Endian,
	}, fn)
	return &Parser{
		GenericFieldSet: root,
		tags:            opts.Tags,
		stream:          st,
		validate:        opts.Validate,
		mimeFn:          opts.MIMEType,
		descFn:          opts.Description,
	}
}

// TagsInfo returns the parser's self-description record.
func (p *Parser) TagsInfo() Tags { return p.tags }

// Stream returns the backing bit stream.
func (p *Parser) Stream() *stream.Stream { return p.stream }

// Validate checks the magic signatures and minimum size declared in
// tags, then defers to the format-specific ValidateFunc if one was
// given. Called by the registry during sniffing (C6).
func (p *Parser) Validate() (bool, string) {
	if total, ok := p.stream.SizeBits(); ok && total < p.tags.MinSizeBits {
		return false, "stream shorter than the format's minimum size"
	}
	for _, m := range p.tags.Magic {
		got, err := p.stream.ReadBytes(m.BitOffset, int64(len(m.Bytes)))
		if err != nil || !bytes.Equal(got, m.Bytes) {
			return false, "magic signature mismatch"
		}
	}
	if p.validate != nil {
		return p.validate(p)
	}
	return true, ""
}

// MIMEType returns the parser-computed MIME type if a MetaFunc was
// given, else the first declared tag MIME type.
func (p *Parser) MIMEType() string {
	if p.mimeFn != nil {
		return p.mimeFn(p)
	}
	if len(p.tags.MIMETypes) > 0 {
		return p.tags.MIMETypes[0]
	}
	return ""
}

// CreateDescription returns the parser-computed description if a
// MetaFunc was given, else the declared tag description.
func (p *Parser) CreateDescription() string {
	if p.descFn != nil {
		return p.descFn(p)
	}
	return p.tags.Description
}

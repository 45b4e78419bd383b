package binfield

import "github.com/mgnsk/binfield/stream"

// registryEntry pairs a parser's self-description with its
// Constructor, mirroring canboat.PGN's self-describing-record style.
type registryEntry struct {
	tags        Tags
	constructor Constructor
}

// Registry maps format tags to parser constructors and selects one for
// a given input (C6). Registration is static: parsers self-declare
// their tags at package init() time via Register.
type Registry struct {
	entries []registryEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a parser constructor under the given tags. Order among
// equal candidates is insertion order.
func (r *Registry) Register(tags Tags, ctor Constructor) {
	r.entries = append(r.entries, registryEntry{tags: tags, constructor: ctor})
}

// candidateOrder returns entries with extension/MIME hint matches
// first, in insertion order, then the rest, also in insertion order —
// the same unique-vs-ambiguous-then-fallback shape as
// Decoder.findPGN in canboat/decoder.go.
func (r *Registry) candidateOrder(hintExt, hintMIME string) []registryEntry {
	var hinted, rest []registryEntry
	for _, e := range r.entries {
		if matchesHint(e.tags, hintExt, hintMIME) {
			hinted = append(hinted, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(hinted, rest...)
}

func matchesHint(tags Tags, hintExt, hintMIME string) bool {
	if hintExt != "" {
		for _, ext := range tags.Extensions {
			if ext == hintExt {
				return true
			}
		}
	}
	if hintMIME != "" {
		for _, m := range tags.MIMETypes {
			if m == hintMIME {
				return true
			}
		}
	}
	return false
}

// Sniff instantiates each candidate parser against st in turn, calling
// Validate() until one accepts. hintExt/hintMIME (either may be empty)
// bias the trial order but every registered parser is still a
// candidate. Returns ErrNoParser if none accepts.
func (r *Registry) Sniff(st *stream.Stream, hintExt, hintMIME string) (*Parser, error) {
	for _, e := range r.candidateOrder(hintExt, hintMIME) {
		p := e.constructor(st)
		if ok, _ := p.Validate(); ok {
			return p, nil
		}
	}
	return nil, ErrNoParser
}

// ByID constructs the parser registered under the given tags.ID,
// without sniffing, for when the caller already knows the format.
func (r *Registry) ByID(st *stream.Stream, id string) (*Parser, error) {
	for _, e := range r.entries {
		if e.tags.ID == id {
			return e.constructor(st), nil
		}
	}
	return nil, ErrNoParser
}

var defaultRegistry = NewRegistry()

// Register adds ctor to the default, process-wide registry. Sample
// format parsers call this from their package init() (see
// parsers/register.go).
func Register(tags Tags, ctor Constructor) {
	defaultRegistry.Register(tags, ctor)
}

// Sniff selects and constructs a parser from the default registry.
func Sniff(st *stream.Stream, hintExt, hintMIME string) (*Parser, error) {
	return defaultRegistry.Sniff(st, hintExt, hintMIME)
}

// ByID constructs the parser with the given tags.ID from the default
// registry.
func ByID(st *stream.Stream, id string) (*Parser, error) {
	return defaultRegistry.ByID(st, id)
}

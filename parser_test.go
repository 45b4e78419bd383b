package binfield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgnsk/binfield"
	"github.com/mgnsk/binfield/stream"
)

func TestParserValidateChecksMagicAndMinSize(t *testing.T) {
	tags := binfield.Tags{
		ID:          "test",
		MinSizeBits: 16,
		Magic:       []binfield.MagicTag{{Bytes: []byte{0xCA, 0xFE}, BitOffset: 0}},
		Description: "a test format",
	}
	st := stream.NewFromBytes([]byte{0xCA, 0xFE, 0x01})
	p := binfield.NewParser(st, binfield.ParserOpts{Tags: tags}, noopBody)

	ok, reason := p.Validate()
	assert.True(t, ok, reason)

	shortSt := stream.NewFromBytes([]byte{0xCA})
	short := binfield.NewParser(shortSt, binfield.ParserOpts{Tags: tags}, noopBody)
	ok, reason = short.Validate()
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	wrongMagicSt := stream.NewFromBytes([]byte{0x00, 0x00})
	wrongMagic := binfield.NewParser(wrongMagicSt, binfield.ParserOpts{Tags: tags}, noopBody)
	ok, _ = wrongMagic.Validate()
	assert.False(t, ok)
}

func TestParserCustomValidateFunc(t *testing.T) {
	tags := binfield.Tags{ID: "test"}
	st := stream.NewFromBytes([]byte{0x01})
	calledWithParser := false
	p := binfield.NewParser(st, binfield.ParserOpts{
		Tags: tags,
		Validate: func(p *binfield.Parser) (bool, string) {
			calledWithParser = p.TagsInfo().ID == "test"
			return false, "custom rejection"
		},
	}, noopBody)

	ok, reason := p.Validate()
	assert.False(t, ok)
	assert.Equal(t, "custom rejection", reason)
	assert.True(t, calledWithParser)
}

func TestParserMIMEAndDescriptionFallBackToTags(t *testing.T) {
	tags := binfield.Tags{
		ID:          "test",
		MIMETypes:   []string{"application/x-test"},
		Description: "static description",
	}
	st := stream.NewFromBytes([]byte{0x00})
	p := binfield.NewParser(st, binfield.ParserOpts{Tags: tags}, noopBody)

	assert.Equal(t, "application/x-test", p.MIMEType())
	assert.Equal(t, "static description", p.CreateDescription())
}

func TestParserMIMEAndDescriptionMetaFuncOverride(t *testing.T) {
	tags := binfield.Tags{ID: "test", Description: "static"}
	st := stream.NewFromBytes([]byte{0x00})
	p := binfield.NewParser(st, binfield.ParserOpts{
		Tags:        tags,
		MIMEType:    func(p *binfield.Parser) string { return "computed/mime" },
		Description: func(p *binfield.Parser) string { return "computed description" },
	}, noopBody)

	assert.Equal(t, "computed/mime", p.MIMEType())
	assert.Equal(t, "computed description", p.CreateDescription())
}

func TestByIDAndSniffUseDefaultRegistry(t *testing.T) {
	tags := binfield.Tags{ID: "registry-smoke-test", Magic: []binfield.MagicTag{{Bytes: []byte{0x7E}}}}
	binfield.Register(tags, func(st *stream.Stream) *binfield.Parser {
		return binfield.NewParser(st, binfield.ParserOpts{Tags: tags}, noopBody)
	})

	st := stream.NewFromBytes([]byte{0x7E})
	p, err := binfield.ByID(st, "registry-smoke-test")
	require.NoError(t, err)
	assert.Equal(t, "registry-smoke-test", p.TagsInfo().ID)

	st2 := stream.NewFromBytes([]byte{0x7E})
	sniffed, err := binfield.Sniff(st2, "", "")
	require.NoError(t, err)
	assert.Equal(t, "registry-smoke-test", sniffed.TagsInfo().ID)
}

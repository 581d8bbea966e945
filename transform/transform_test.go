package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTransformer(t *testing.T) *Transformer {
	t.Helper()
	tr, err := New(DefaultConfig())
	require.NoError(t, err)
	return tr
}

func TestTransformEchoesCatalog(t *testing.T) {
	tr := newDefaultTransformer(t)

	input := `<catalog><book id="bk101"><title>XML Guide</title></book></catalog>`
	frag, err := tr.Transform(input)
	require.NoError(t, err)

	assert.Equal(t, "catalog", frag.Tag)
	assert.Equal(t, input, frag.XML)
}

func TestTransformKeepsAttributesApartFromChildren(t *testing.T) {
	tr := newDefaultTransformer(t)

	frag, err := tr.Transform(`<catalog id="x"><book/></catalog>`)
	require.NoError(t, err)

	assert.Equal(t, `<catalog id="x"><book/></catalog>`, frag.XML)
}

func TestTransformPreservesWhitespace(t *testing.T) {
	tr := newDefaultTransformer(t)

	input := "<catalog>\n  <book>  spaced  out  </book>\n</catalog>"
	frag, err := tr.Transform(input)
	require.NoError(t, err)

	assert.Equal(t, input, frag.XML)
}

func TestTransformIgnoresPrologAndTrailingWhitespace(t *testing.T) {
	tr := newDefaultTransformer(t)

	input := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!-- books -->\n<catalog><book/></catalog>\n\n"
	frag, err := tr.Transform(input)
	require.NoError(t, err)

	assert.Equal(t, "<catalog><book/></catalog>", frag.XML)
}

func TestTransformIsIdempotent(t *testing.T) {
	tr := newDefaultTransformer(t)

	input := `<catalog xmlns:x="urn:x"><book id="bk102" x:lang="en"><title> Midnight Rain </title><price>5.95</price></book><!-- end --></catalog>`
	first, err := tr.Transform(input)
	require.NoError(t, err)
	second, err := tr.Transform(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The output is itself a valid input and round-trips unchanged.
	again, err := tr.Transform(first.XML)
	require.NoError(t, err)
	assert.Equal(t, first.XML, again.XML)
}

func TestTransformRejectsMalformedInput(t *testing.T) {
	tr := newDefaultTransformer(t)

	cases := map[string]struct {
		input string
		cause error
		line  int
	}{
		"plain text":                {input: "not xml at all", cause: ErrTextOutsideRoot, line: 1},
		"mismatched tags":           {input: "<a><b></a>", line: 1},
		"unclosed root":             {input: "<catalog>\n<book>\n</book>\n", line: 4},
		"multiple roots":            {input: "<catalog/>\n<catalog/>", cause: ErrMultipleRoots, line: 2},
		"empty":                     {input: "", cause: ErrEmptyInput},
		"whitespace only":           {input: " \n\t ", cause: ErrEmptyInput},
		"invalid character":         {input: "<catalog>\x00</catalog>", line: 1},
		"bare ampersand":            {input: "<catalog>a & b</catalog>", line: 1},
		"duplicate attribute":       {input: `<catalog a="1" a="2"/>`, cause: ErrDuplicateAttribute, line: 1},
		"duplicate child attribute": {input: "<catalog>\n<book id=\"1\" id=\"1\"/>\n</catalog>", cause: ErrDuplicateAttribute, line: 2},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			frag, err := tr.Transform(c.input)
			require.Error(t, err)
			assert.Empty(t, frag.XML)
			assert.ErrorIs(t, err, ErrMalformedXML)

			var malformedErr *MalformedXMLError
			require.True(t, errors.As(err, &malformedErr))
			assert.Equal(t, c.line, malformedErr.Line)
			if c.cause != nil {
				assert.ErrorIs(t, err, c.cause)
			}
		})
	}
}

func TestTransformRejectsUnexpectedRoot(t *testing.T) {
	tr := newDefaultTransformer(t)

	_, err := tr.Transform(`<Catalog><book/></Catalog>`)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedXML)

	var rootErr *UnexpectedRootElementError
	require.True(t, errors.As(err, &rootErr))
	assert.Equal(t, "catalog", rootErr.Expected)
	assert.Equal(t, "Catalog", rootErr.Got)
}

func TestTransformDetectsRootWhenUnset(t *testing.T) {
	tr, err := New(Config{})
	require.NoError(t, err)

	frag, err := tr.Transform(`<library><shelf/></library>`)
	require.NoError(t, err)
	assert.Equal(t, "library", frag.Tag)
	assert.Equal(t, `<library><shelf/></library>`, frag.XML)
}

func TestTransformSelectsFirstFragment(t *testing.T) {
	tr, err := New(Config{RootTag: "catalog", FragmentTag: "book"})
	require.NoError(t, err)

	frag, err := tr.Transform(`<catalog><note/><book id="1"><title>A</title></book><book id="2"/></catalog>`)
	require.NoError(t, err)
	assert.Equal(t, "book", frag.Tag)
	assert.Equal(t, `<book id="1"><title>A</title></book>`, frag.XML)
}

func TestTransformReportsMissingFragment(t *testing.T) {
	tr, err := New(Config{RootTag: "catalog", FragmentTag: "book"})
	require.NoError(t, err)

	_, err = tr.Transform(`<catalog><magazine/></catalog>`)

	var missingErr *MissingFragmentError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, "catalog", missingErr.Root)
	assert.Equal(t, "book", missingErr.Tag)
}

func TestTransformFragmentKeepsInheritedNamespaces(t *testing.T) {
	cases := map[string]struct {
		fragmentTag string
		input       string
		want        string
	}{
		"default namespace": {
			fragmentTag: "book",
			input:       `<catalog xmlns="urn:d"><book/></catalog>`,
			want:        `<book xmlns="urn:d"/>`,
		},
		"prefixed namespace": {
			fragmentTag: "x:book",
			input:       `<catalog xmlns:x="urn:x"><x:book id="1"><x:title>A</x:title></x:book></catalog>`,
			want:        `<x:book xmlns:x="urn:x" id="1"><x:title>A</x:title></x:book>`,
		},
		"prefixed attribute only": {
			fragmentTag: "book",
			input:       `<catalog xmlns:x="urn:x" xmlns:y="urn:y"><book x:lang="en"/></catalog>`,
			want:        `<book xmlns:x="urn:x" x:lang="en"/>`,
		},
		"own declaration wins": {
			fragmentTag: "book",
			input:       `<catalog xmlns="urn:d"><book xmlns="urn:own"/></catalog>`,
			want:        `<book xmlns="urn:own"/>`,
		},
		"unused declarations are left out": {
			fragmentTag: "book",
			input:       `<catalog xmlns:x="urn:x"><book id="1"/></catalog>`,
			want:        `<book id="1"/>`,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			tr, err := New(Config{RootTag: "catalog", FragmentTag: c.fragmentTag})
			require.NoError(t, err)

			frag, err := tr.Transform(c.input)
			require.NoError(t, err)
			assert.Equal(t, c.want, frag.XML)
		})
	}
}

func TestTransformFragmentWithInheritedNamespaceReadsBack(t *testing.T) {
	tr, err := New(Config{RootTag: "catalog", FragmentTag: "book"})
	require.NoError(t, err)

	frag, err := tr.Transform(`<catalog xmlns:x="urn:outer"><book><x:title>A</x:title></book></catalog>`)
	require.NoError(t, err)
	assert.Equal(t, `<book xmlns:x="urn:outer"><x:title>A</x:title></book>`, frag.XML)

	again, err := New(Config{RootTag: "book"})
	require.NoError(t, err)
	roundTrip, err := again.Transform(frag.XML)
	require.NoError(t, err)
	assert.Equal(t, frag.XML, roundTrip.XML)
}

func TestTransformKeepsLineBreaksInAttributeValues(t *testing.T) {
	tr := newDefaultTransformer(t)

	frag, err := tr.Transform(`<catalog><b a="x&#10;y" c="tab&#9;cr&#13;"/></catalog>`)
	require.NoError(t, err)
	assert.Equal(t, `<catalog><b a="x&#xA;y" c="tab&#x9;cr&#xD;"/></catalog>`, frag.XML)

	// The output reads back to the same values.
	again, err := tr.Transform(frag.XML)
	require.NoError(t, err)
	assert.Equal(t, frag.XML, again.XML)
}

func TestTransformDoesNotModifyParsedInputAcrossCalls(t *testing.T) {
	tr, err := New(Config{RootTag: "catalog", Options: ParserOptions{Trim: true}})
	require.NoError(t, err)

	input := `<catalog><title>  A  </title></catalog>`
	for i := 0; i < 2; i++ {
		frag, err := tr.Transform(input)
		require.NoError(t, err)
		assert.Equal(t, `<catalog><title>A</title></catalog>`, frag.XML)
	}
}

func TestTransformDecodesDeclaredEncoding(t *testing.T) {
	tr := newDefaultTransformer(t)

	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><catalog><title>Caf\xe9</title></catalog>"
	frag, err := tr.Transform(input)
	require.NoError(t, err)

	assert.Equal(t, "<catalog><title>Café</title></catalog>", frag.XML)
}

// Package transform validates XML documents and extracts a single element
// from them as a standalone XML fragment.
package transform

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

const DefaultRootTag = "catalog"

type Config struct {
	// RootTag is the required root element tag, compared case-sensitively
	// including any namespace prefix. Empty accepts any root.
	RootTag string `yaml:"root_tag"`
	// FragmentTag selects the first child of the root with this tag. Empty
	// selects the root itself.
	FragmentTag string        `yaml:"fragment_tag"`
	Options     ParserOptions `yaml:"options"`
}

func DefaultConfig() Config {
	return Config{
		RootTag: DefaultRootTag,
		Options: DefaultParserOptions(),
	}
}

// Fragment is a serialized element. XML has no declaration and no added
// indentation.
type Fragment struct {
	Tag string
	XML string
}

// Transformer holds no per-call state and may be shared between goroutines.
type Transformer struct {
	cfg Config
}

func New(cfg Config) (*Transformer, error) {
	if err := cfg.Options.validate(); err != nil {
		return nil, err
	}
	return &Transformer{cfg: cfg}, nil
}

func (t *Transformer) Config() Config { return t.cfg }

func (t *Transformer) Transform(input string) (Fragment, error) {
	return t.TransformBytes([]byte(input))
}

func (t *Transformer) TransformBytes(input []byte) (Fragment, error) {
	if err := checkWellFormed(input); err != nil {
		return Fragment{}, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(input); err != nil {
		return Fragment{}, &MalformedXMLError{Err: err}
	}

	el, err := t.selectElement(doc.Root())
	if err != nil {
		return Fragment{}, err
	}

	frag := el.Copy()
	t.cfg.Options.apply(frag)
	inheritNamespaces(frag, el.Parent())

	out := etree.NewDocument()
	// Canonical attribute values keep tabs and line breaks as character
	// references; written raw they would read back as spaces.
	out.WriteSettings.CanonicalAttrVal = true
	out.SetRoot(frag)
	s, err := out.WriteToString()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Tag: frag.FullTag(), XML: s}, nil
}

func (t *Transformer) selectElement(root *etree.Element) (*etree.Element, error) {
	if t.cfg.RootTag != "" && root.FullTag() != t.cfg.RootTag {
		return nil, &UnexpectedRootElementError{Expected: t.cfg.RootTag, Got: root.FullTag()}
	}
	if t.cfg.FragmentTag == "" {
		return root, nil
	}
	for _, child := range root.ChildElements() {
		if child.FullTag() == t.cfg.FragmentTag {
			return child, nil
		}
	}
	return nil, &MissingFragmentError{Root: root.FullTag(), Tag: t.cfg.FragmentTag}
}

// inheritNamespaces declares on frag the namespaces that its subtree uses
// but that were declared on ancestors of the element it was copied from.
// The nearest declaration of a prefix wins.
func inheritNamespaces(frag, parent *etree.Element) {
	used := make(map[string]bool)
	collectPrefixes(frag, used)

	declared := make(map[string]bool)
	for _, a := range frag.Attr {
		if prefix, ok := namespacePrefix(a); ok {
			declared[prefix] = true
		}
	}

	var inherited []etree.Attr
	for p := parent; p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			prefix, ok := namespacePrefix(a)
			if !ok || declared[prefix] || !used[prefix] {
				continue
			}
			declared[prefix] = true
			inherited = append(inherited, a)
		}
	}
	if len(inherited) == 0 {
		return
	}

	attrs := frag.Attr
	frag.Attr = nil
	for _, a := range inherited {
		frag.CreateAttr(a.FullKey(), a.Value)
	}
	for _, a := range attrs {
		frag.CreateAttr(a.FullKey(), a.Value)
	}
}

// collectPrefixes records the namespace prefixes referenced by el and its
// descendants. The empty prefix stands for the default namespace, which
// unprefixed attributes do not take part in.
func collectPrefixes(el *etree.Element, used map[string]bool) {
	used[el.Space] = true
	for _, a := range el.Attr {
		if _, ok := namespacePrefix(a); !ok && a.Space != "" {
			used[a.Space] = true
		}
	}
	for _, child := range el.ChildElements() {
		collectPrefixes(child, used)
	}
}

// checkWellFormed runs a strict tokenizer over the whole input. The DOM
// reader does not verify that end tags match their start tags, so this pass
// is what rejects documents such as <a><b></a>.
func checkWellFormed(input []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(input))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return malformed(dec, err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			if hasDuplicateAttr(tok.Attr) {
				return malformed(dec, ErrDuplicateAttribute)
			}
			if depth == 0 {
				roots++
				if roots > 1 {
					return malformed(dec, ErrMultipleRoots)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(tok)) > 0 {
				return malformed(dec, ErrTextOutsideRoot)
			}
		}
	}

	if roots == 0 {
		return &MalformedXMLError{Err: ErrEmptyInput}
	}
	return nil
}

func hasDuplicateAttr(attrs []xml.Attr) bool {
	seen := make(map[xml.Name]bool, len(attrs))
	for _, a := range attrs {
		if seen[a.Name] {
			return true
		}
		seen[a.Name] = true
	}
	return false
}

func malformed(dec *xml.Decoder, err error) *MalformedXMLError {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &MalformedXMLError{Line: syntaxErr.Line, Err: err}
	}
	line, _ := dec.InputPos()
	return &MalformedXMLError{Line: line, Err: err}
}

package transform

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// ParserOptions is the fixed option set applied to an extracted element
// before it is serialized. It is passed by value and never modified after
// New, so a Transformer's behaviour cannot change between calls.
//
// Child elements are always kept as ordered sequences, even when an element
// has a single child; that is a property of the tree and has no switch.
type ParserOptions struct {
	// Trim removes leading and trailing whitespace from every text node.
	Trim bool `yaml:"trim"`
	// Normalize collapses runs of two or more whitespace characters inside
	// text nodes into one space and trims the result.
	Normalize bool `yaml:"normalize"`
	// IgnoreAttrs drops every attribute except namespace declarations.
	IgnoreAttrs bool `yaml:"ignore_attrs"`
	// MergeAttrs turns each attribute into a leading child element
	// <key>value</key>. Namespace declarations stay attributes.
	MergeAttrs bool `yaml:"merge_attrs"`
	// EmptyTag is written as the text of elements that have no content and
	// no attributes. Empty leaves such elements empty.
	EmptyTag string `yaml:"empty_tag"`
}

// DefaultParserOptions preserves the document exactly: no trimming, no
// normalization, attributes kept apart from children and no placeholder for
// empty elements.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{}
}

func (o ParserOptions) validate() error {
	if o.IgnoreAttrs && o.MergeAttrs {
		return ErrConflictingOptions
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s{2,}`)

func (o ParserOptions) text(s string) string {
	if o.Trim {
		s = strings.TrimSpace(s)
	}
	if o.Normalize {
		s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	}
	return s
}

// apply rewrites el in place. Callers pass a copy.
func (o ParserOptions) apply(el *etree.Element) {
	switch {
	case o.IgnoreAttrs:
		el.Attr = namespaceDecls(el.Attr)
	case o.MergeAttrs:
		mergeAttrs(el)
	}

	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			t.Data = o.text(t.Data)
		case *etree.Element:
			o.apply(t)
		}
	}

	if o.EmptyTag != "" && len(el.Attr) == 0 && isEmpty(el) {
		el.SetText(o.EmptyTag)
	}
}

// namespacePrefix reports whether a declares a namespace and, if so, the
// prefix it binds. The default namespace has the empty prefix.
func namespacePrefix(a etree.Attr) (string, bool) {
	switch {
	case a.Space == "xmlns":
		return a.Key, true
	case a.Space == "" && a.Key == "xmlns":
		return "", true
	}
	return "", false
}

func namespaceDecls(attrs []etree.Attr) []etree.Attr {
	var kept []etree.Attr
	for _, a := range attrs {
		if _, ok := namespacePrefix(a); ok {
			kept = append(kept, a)
		}
	}
	return kept
}

func mergeAttrs(el *etree.Element) {
	kept := namespaceDecls(el.Attr)
	n := 0
	for _, a := range el.Attr {
		if _, ok := namespacePrefix(a); ok {
			continue
		}
		child := etree.NewElement(a.FullKey())
		child.SetText(a.Value)
		el.InsertChildAt(n, child)
		n++
	}
	el.Attr = kept
}

func isEmpty(el *etree.Element) bool {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			return false
		case *etree.CharData:
			if t.Data != "" {
				return false
			}
		}
	}
	return true
}

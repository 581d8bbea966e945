package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedXML matches every *MalformedXMLError via errors.Is.
	ErrMalformedXML = errors.New("malformed XML")

	ErrEmptyInput         = errors.New("empty document")
	ErrMultipleRoots      = errors.New("multiple root elements")
	ErrTextOutsideRoot    = errors.New("text outside the root element")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrConflictingOptions = errors.New("IgnoreAttrs and MergeAttrs cannot both be set")
)

// MalformedXMLError reports input that is not well-formed XML. Err carries
// the parser's diagnostic; Line is the input line it was raised at, or 0 when
// unknown.
type MalformedXMLError struct {
	Line int
	Err  error
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed XML: %v", e.Err)
}

func (e *MalformedXMLError) Unwrap() error { return e.Err }

func (e *MalformedXMLError) Is(target error) bool { return target == ErrMalformedXML }

// UnexpectedRootElementError reports a well-formed document whose root
// element is not the configured one.
type UnexpectedRootElementError struct {
	Expected string
	Got      string
}

func (e *UnexpectedRootElementError) Error() string {
	return fmt.Sprintf("unexpected root element <%s>, want <%s>", e.Got, e.Expected)
}

// MissingFragmentError reports a root element with no child of the
// configured fragment tag.
type MissingFragmentError struct {
	Root string
	Tag  string
}

func (e *MissingFragmentError) Error() string {
	return fmt.Sprintf("root element <%s> has no <%s> child", e.Root, e.Tag)
}

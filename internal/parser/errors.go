package parser

import (
	"errors"
	"fmt"
)

// Kinds of parse failure. Every error returned by this package wraps exactly
// one of them, so callers can branch with errors.Is.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrMalformedMetadata = errors.New("malformed metadata")
	ErrMissingField      = errors.New("missing field")
)

// maxFragment bounds how much of the offending input is kept for diagnostics.
const maxFragment = 80

// ParseError describes why a document could not be turned into a post.
type ParseError struct {
	Kind     error  // ErrMalformedDocument, ErrMalformedMetadata or ErrMissingField
	Field    string // set for ErrMissingField
	Fragment string // offending input, truncated
	Err      error  // underlying decoder error, if any
}

func (e *ParseError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %q", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Fragment != "":
		return fmt.Sprintf("%s: near %q", e.Kind, e.Fragment)
	default:
		return e.Kind.Error()
	}
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func malformedDocument(raw string) *ParseError {
	return &ParseError{Kind: ErrMalformedDocument, Fragment: fragment(raw)}
}

func malformedMetadata(block string, err error) *ParseError {
	return &ParseError{Kind: ErrMalformedMetadata, Fragment: fragment(block), Err: err}
}

func missingField(name string) *ParseError {
	return &ParseError{Kind: ErrMissingField, Field: name}
}

func fragment(s string) string {
	r := []rune(s)
	if len(r) <= maxFragment {
		return s
	}
	return string(r[:maxFragment]) + "..."
}

package parser

import "strings"

// Delimiter separates the preamble, the metadata block and the body.
const Delimiter = "---"

// Split partitions raw into its metadata block and body. Text before the
// first delimiter is ignored. Only the first two delimiters are significant;
// everything after the second one is returned verbatim as the body, including
// further delimiter-like sequences (e.g. inside code blocks).
func Split(raw string) (meta, body string, err error) {
	_, rest, ok := strings.Cut(raw, Delimiter)
	if !ok {
		return "", "", malformedDocument(raw)
	}
	meta, body, ok = strings.Cut(rest, Delimiter)
	if !ok {
		return "", "", malformedDocument(raw)
	}
	return meta, body, nil
}

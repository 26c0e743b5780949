// Package models defines the domain types for Quire.
package models

// Post is a parsed document ready for rendering. It is built per request
// and never stored.
type Post struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// PostFile describes a candidate document found under the posts root.
type PostFile struct {
	Path string `json:"path"`
}

// Package content turns raw fetched bodies into normalized entities. Parsing
// is a closed variant over recognized content shapes; an unrecognized body is
// a value (ShapeUnknown), never an error.
package content

import (
	"bytes"
	"strings"
)

type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeTable
	ShapeText
)

func (s Shape) String() string {
	switch s {
	case ShapeTable:
		return "table"
	case ShapeText:
		return "text"
	default:
		return "unknown"
	}
}

// Entity is one parsed unit of content before normalization: a named thing
// with raw string-valued fields as they appeared in the source.
type Entity struct {
	Name   string
	Fields map[string]string
}

// DetectShape classifies a raw body. HTML documents containing a <table>
// element are tabular; plain-text bodies made of "Key: value" blocks are
// free-text; anything else is unknown.
func DetectShape(body []byte) Shape {
	if len(bytes.TrimSpace(body)) == 0 {
		return ShapeUnknown
	}
	lower := bytes.ToLower(body)
	if bytes.Contains(lower, []byte("<table")) {
		return ShapeTable
	}
	if bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<body")) {
		// HTML without tables carries no extractable records for this domain.
		return ShapeUnknown
	}
	if looksLikeFieldBlocks(string(body)) {
		return ShapeText
	}
	return ShapeUnknown
}

func looksLikeFieldBlocks(s string) bool {
	fieldLines := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.Index(line, ":"); idx > 0 && idx < len(line)-1 {
			fieldLines++
		}
	}
	return fieldLines >= 1
}

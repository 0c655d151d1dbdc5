// Package frontmatter splits Markdown and MDX content files into their
// metadata block and body, and decodes the metadata into a schema.Record.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/eringen/pubcontent/schema"
)

// Format is the syntax of a front-matter block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnterminated is returned when an opening fence has no closing fence.
var ErrUnterminated = errors.New("front-matter block is not terminated")

// SyntaxError reports metadata that could not be decoded.
type SyntaxError struct {
	Format Format
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s front-matter: %v", e.Format, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Document is a parsed content file.
type Document struct {
	Format Format
	Data   schema.Record
	Body   string
}

var bom = []byte("\xef\xbb\xbf")

// Parse extracts and decodes the front-matter of src. A file without a
// front-matter block yields an empty record and the whole file as body.
func Parse(src []byte) (Document, error) {
	format, meta, body, err := Split(src)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Format: format, Body: string(body)}
	switch format {
	case FormatYAML:
		doc.Data, err = decodeYAML(meta)
	case FormatTOML:
		doc.Data, err = decodeTOML(meta)
	default:
		doc.Data = schema.Record{}
	}
	if err != nil {
		return Document{}, &SyntaxError{Format: format, Err: err}
	}
	return doc, nil
}

// Split separates the raw metadata block from the body without decoding it.
func Split(src []byte) (Format, []byte, []byte, error) {
	src = bytes.TrimPrefix(src, bom)

	first, rest, _ := cutLine(src)
	var (
		format Format
		fence  string
	)
	switch string(bytes.TrimRight(first, " \t")) {
	case "---":
		format, fence = FormatYAML, "---"
	case "+++":
		format, fence = FormatTOML, "+++"
	default:
		return FormatNone, nil, src, nil
	}

	offset := 0
	for offset <= len(rest) {
		line, next, ok := cutLine(rest[offset:])
		if string(bytes.TrimRight(line, " \t")) == fence {
			var body []byte
			if ok {
				body = next
			}
			return format, rest[:offset], body, nil
		}
		if !ok {
			break
		}
		offset += len(rest[offset:]) - len(next)
	}
	return format, nil, nil, ErrUnterminated
}

// cutLine returns the first line of b without its line terminator, the
// remainder after the terminator, and whether a terminator was found.
func cutLine(b []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return bytes.TrimSuffix(b, []byte("\r")), nil, false
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), b[i+1:], true
}

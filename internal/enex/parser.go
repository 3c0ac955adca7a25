package enex

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// ErrNotEnex marks input that is well-formed XML but not an Evernote export.
var ErrNotEnex = errors.New("enex: missing en-export root element")

const (
	rootElement     = "en-export"
	timestampLayout = "20060102T150405Z"
	defaultMime     = "application/octet-stream"
)

// Numeric fields are decoded as strings and converted leniently afterwards:
// a typed field would turn one note's garbage value into a decode error, and
// only malformed XML may abort the whole document.
type xmlNote struct {
	Title      string         `xml:"title"`
	Content    *string        `xml:"content"`
	Created    string         `xml:"created"`
	Updated    string         `xml:"updated"`
	Tags       []string       `xml:"tag"`
	Attributes *xmlNoteAttrs  `xml:"note-attributes"`
	Resources  []*xmlResource `xml:"resource"`
}

type xmlNoteAttrs struct {
	SourceURL string `xml:"source-url"`
	Author    string `xml:"author"`
	Latitude  string `xml:"latitude"`
	Longitude string `xml:"longitude"`
	Altitude  string `xml:"altitude"`
}

type xmlResource struct {
	Data       string `xml:"data"`
	Mime       string `xml:"mime"`
	Width      string `xml:"width"`
	Height     string `xml:"height"`
	Attributes *struct {
		FileName string `xml:"file-name"`
	} `xml:"resource-attributes"`
}

// Parse decodes one .enex document. Unknown elements are skipped so newer
// export formats still parse; malformed XML or a wrong root element is a
// document-fatal error. Per-note problems (missing title or content) drop
// the note into ExportDocument.Skipped instead of failing the parse.
func Parse(r io.Reader) (*ExportDocument, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	root, err := findRoot(decoder)
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{Notes: make([]ExportedNote, 0), Skipped: make([]string, 0)}
	depth := 0
	index := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enex: parse: %w", err)
		}
		switch element := token.(type) {
		case xml.StartElement:
			if depth == 0 && element.Name.Local == "note" {
				index += 1
				var raw xmlNote
				if err := decoder.DecodeElement(&raw, &element); err != nil {
					var syntaxErr *xml.SyntaxError
					if errors.As(err, &syntaxErr) {
						return nil, fmt.Errorf("enex: parse note %d: %w", index, err)
					}
					doc.Skipped = append(doc.Skipped, fmt.Sprintf("note %d: %v", index, err))
					continue
				}
				note, reason := buildNote(&raw, index)
				if reason != "" {
					doc.Skipped = append(doc.Skipped, reason)
					continue
				}
				doc.Notes = append(doc.Notes, *note)
				continue
			}
			depth += 1
		case xml.EndElement:
			if depth == 0 && element.Name == root.Name {
				return doc, nil
			}
			depth -= 1
		}
	}
	return doc, nil
}

func ParseBytes(content []byte) (*ExportDocument, error) {
	return Parse(bytes.NewReader(content))
}

func findRoot(decoder *xml.Decoder) (*xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("enex: parse: %w", err)
		}
		if start, ok := token.(xml.StartElement); ok {
			if start.Name.Local != rootElement {
				return nil, ErrNotEnex
			}
			return &start, nil
		}
	}
}

func buildNote(raw *xmlNote, index int) (*ExportedNote, string) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, fmt.Sprintf("note %d: missing title", index)
	}
	if raw.Content == nil {
		return nil, fmt.Sprintf("note %d (%s): missing content", index, title)
	}
	note := &ExportedNote{
		Title:     title,
		Content:   *raw.Content,
		Created:   parseTimestamp(raw.Created),
		Updated:   parseTimestamp(raw.Updated),
		Tags:      make([]string, 0, len(raw.Tags)),
		Resources: make([]EmbeddedResource, 0, len(raw.Resources)),
	}
	for _, tag := range raw.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		note.Tags = append(note.Tags, trimmed)
	}
	if raw.Attributes != nil {
		note.Attributes = &NoteAttributes{
			SourceURL: strings.TrimSpace(raw.Attributes.SourceURL),
			Author:    strings.TrimSpace(raw.Attributes.Author),
			Latitude:  parseCoordinate(raw.Attributes.Latitude),
			Longitude: parseCoordinate(raw.Attributes.Longitude),
			Altitude:  parseCoordinate(raw.Attributes.Altitude),
		}
	}
	for _, res := range raw.Resources {
		if res == nil {
			continue
		}
		note.Resources = append(note.Resources, EmbeddedResource{
			Data:     res.Data,
			Mime:     normalizeMime(res.Mime),
			Width:    parseDimension(res.Width),
			Height:   parseDimension(res.Height),
			FileName: resourceFileName(res),
		})
	}
	return note, ""
}

// parseDimension tolerates garbage pixel sizes; a bad value is zero, not an
// import failure.
func parseDimension(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseCoordinate(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func resourceFileName(res *xmlResource) string {
	if res.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(res.Attributes.FileName)
}

var mimeShape = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*$`)

func normalizeMime(mime string) string {
	mime = strings.TrimSpace(mime)
	if mime == "" || !mimeShape.MatchString(mime) {
		return defaultMime
	}
	return strings.ToLower(mime)
}

// Timestamps use the export format's compact layout; anything else is
// treated as absent rather than an error.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(timestampLayout, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// IsValid is a cheap structural probe: it only checks that the export root
// element appears near the start of the file, without a full parse.
func IsValid(content []byte) bool {
	limit := len(content)
	if limit > 4096 {
		limit = 4096
	}
	return bytes.Contains(bytes.ToLower(content[:limit]), []byte("<"+rootElement))
}

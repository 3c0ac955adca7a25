package enex

import "time"

// ExportDocument is the parse result of one .enex file. Notes keeps document
// order. Skipped collects per-note drop reasons (missing title/content) that
// did not abort the parse.
type ExportDocument struct {
	Notes   []ExportedNote
	Skipped []string
}

type ExportedNote struct {
	Title      string
	Content    string
	Created    *time.Time
	Updated    *time.Time
	Tags       []string
	Attributes *NoteAttributes
	Resources  []EmbeddedResource
}

type NoteAttributes struct {
	SourceURL string
	Author    string
	Latitude  *float64
	Longitude *float64
	Altitude  *float64
}

// EmbeddedResource carries the raw base64 payload; decoding is deferred to
// the extraction stage so a bad payload stays a per-resource error.
type EmbeddedResource struct {
	Data     string
	Mime     string
	Width    int
	Height   int
	FileName string
}

package model

// Note is the persisted output of one imported note. ContentENML keeps the
// original markup for fidelity and audit; ContentText is the plain-text
// projection that powers search.
type Note struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	NotebookID   string   `json:"notebook_id"`
	Title        string   `json:"title"`
	ContentHTML  string   `json:"content_html"`
	ContentText  string   `json:"content_text"`
	ContentENML  string   `json:"content_enml,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	Author       string   `json:"author,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Altitude     *float64 `json:"altitude,omitempty"`
	SourceCtime  int64    `json:"source_ctime,omitempty"`
	SourceMtime  int64    `json:"source_mtime,omitempty"`
	ImportedAt   int64    `json:"imported_at"`
	ImportSource string   `json:"import_source"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}

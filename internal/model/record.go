package model

// Report statuses used by the backend.
const (
	ReportStatusInProcess = "In Process"
	ReportStatusPublished = "Published"
)

// Report is an analyst-authored threat report.
type Report struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	SourceURL       string   `json:"source_url"`
	PublicationDate string   `json:"publication_date"`
	Summary         string   `json:"summary"`
	FullText        string   `json:"full_text,omitempty"`
	Status          string   `json:"status"`
	UserID          *int64   `json:"user_id,omitempty"`
	MalwareTags     []string `json:"malware_tags,omitempty"`
}

// NewReport is the body of a report creation request.
type NewReport struct {
	Title           string   `json:"title"`
	Author          string   `json:"author,omitempty"`
	SourceURL       string   `json:"source_url,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	FullText        string   `json:"full_text,omitempty"`
	UserID          *int64   `json:"user_id,omitempty"`
	MalwareNames    []string `json:"malware_names,omitempty"`
}

// Malware is a tracked threat record.
type Malware struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Family       string   `json:"family"`
	Description  string   `json:"description"`
	FirstSeen    string   `json:"first_seen"`
	LastSeen     string   `json:"last_seen"`
	Hashes       []string `json:"hashes"`
	Capabilities []string `json:"capabilities"`
	Sources      []string `json:"sources"`
}

// SigmaRule is a stored detection rule. Content is only populated by the
// single-rule endpoint.
type SigmaRule struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	Content     string    `json:"content,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// Bookmark returns the bookmark reference for this rule.
func (r SigmaRule) Bookmark() Bookmark {
	return Bookmark{ID: r.ID, Name: r.Name}
}

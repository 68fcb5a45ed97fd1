package core

import "time"

// Contact is one parsed, validated row from a connections export.
// Contacts are immutable once constructed; identity is ingestion order.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Company   string `json:"company,omitempty"`
	Position  string `json:"position,omitempty"`
}

// Hit is one excerpt returned by the search service, paired with the
// source document path it was extracted from.
type Hit struct {
	Preview  string `json:"preview"`
	FilePath string `json:"file_path"`
}

// Provenance captures metadata about how a search was resolved.
type Provenance struct {
	SearchID    string    `json:"search_id"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	Server      string    `json:"server,omitempty"`
	ToolVersion string    `json:"tool_version,omitempty"`
}

// Result records the outcome of searching one contact's full name.
// TotalMentions is the server-declared total; Hits is capped locally, so the
// two counters are independent. A failed request degrades to zero mentions
// with Err set — observationally the same as a true zero-match outcome.
type Result struct {
	Name          string     `json:"name"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Company       string     `json:"company,omitempty"`
	Position      string     `json:"position,omitempty"`
	TotalMentions int        `json:"total_mentions"`
	Hits          []Hit      `json:"hits"`
	Err           string     `json:"error,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

// Summary aggregates run-level counters for a report.
type Summary struct {
	TotalSearched int `json:"total_connections"`
	WithMentions  int `json:"connections_with_mentions"`
}

// Report is the sorted aggregate handed to a renderer. Results are ordered
// by descending mention count; ties preserve ingestion order. Partial is set
// when the run was cancelled before visiting every contact.
type Report struct {
	Results     []*Result `json:"results"`
	Summary     Summary   `json:"summary"`
	Partial     bool      `json:"partial,omitempty"`
	TotalInput  int       `json:"total_input,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewResult seeds a Result with a copy of the contact's display fields.
func NewResult(c Contact) *Result {
	return &Result{
		Name:      c.FullName,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Company:   c.Company,
		Position:  c.Position,
	}
}

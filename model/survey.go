package model

import "time"

// Survey is the wire shape of a persisted survey definition.
type Survey struct {
	ID          int           `json:"id,omitempty"`
	Version     int           `json:"version,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	// Snapshot is the structural serialization stored for edit-session
	// recovery. It is never the authoritative answer record.
	Snapshot  string        `json:"snapshot,omitempty"`
	Fields    []SurveyField `json:"fields"`
	Submitted bool          `json:"submitted,omitempty"`
}

// SurveyField is the wire shape of one persisted field definition.
type SurveyField struct {
	ID         int      `json:"id,omitempty"`
	Identifier string   `json:"identifier"`
	Position   int      `json:"position"`
	Type       string   `json:"type"`
	Label      string   `json:"label"`
	Value      string   `json:"value,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// Submission is one respondent's stored answer set, keyed by field
// identifier.
type Submission struct {
	ID     int            `json:"id"`
	Time   time.Time      `json:"time"`
	IP     string         `json:"ip"`
	Role   string         `json:"role,omitempty"`
	Values map[string]any `json:"values"`
}

package model

import "time"

// School is a gallery entry.
type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"notblank"`
	Image     string    `json:"image"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s School) RecordID() string           { return s.ID }
func (s School) RecordCreatedAt() time.Time { return s.CreatedAt }

// WithRecordID returns a copy of s carrying id.
func (s School) WithRecordID(id string) School {
	s.ID = id
	return s
}

// SameSubmission reports whether o has the same name as s.
func (s School) SameSubmission(o School) bool {
	return s.Name == o.Name
}

// SchoolPatch lists the text fields an update may replace. A new image is
// stored and assigned separately.
type SchoolPatch struct {
	Name *string
}

// Apply copies the non-nil fields of p onto s.
func (p SchoolPatch) Apply(s *School) {
	if p.Name != nil {
		s.Name = *p.Name
	}
}

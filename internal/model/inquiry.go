package model

import "time"

// Inquiry is a contact-form submission. Inquiries are append-only.
type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"notblank"`
	Email     string    `json:"email" validate:"notblank"`
	Phone     string    `json:"phone,omitempty"`
	Program   string    `json:"program" validate:"notblank"`
	Grade     string    `json:"grade" validate:"notblank"`
	Message   string    `json:"message" validate:"notblank"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i Inquiry) RecordID() string           { return i.ID }
func (i Inquiry) RecordCreatedAt() time.Time { return i.CreatedAt }

// WithRecordID returns a copy of i carrying id.
func (i Inquiry) WithRecordID(id string) Inquiry {
	i.ID = id
	return i
}

// SameSubmission reports whether o carries the same submitted fields as i.
func (i Inquiry) SameSubmission(o Inquiry) bool {
	return i.Name == o.Name &&
		i.Email == o.Email &&
		i.Phone == o.Phone &&
		i.Program == o.Program &&
		i.Grade == o.Grade &&
		i.Message == o.Message
}

package model

import "time"

// Announcement is a dated news item with a cover image.
//
// Image holds the stored filename relative to the uploads root; ImageURL is
// derived from it at read time and never persisted.
type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"notblank"`
	Date        string    `json:"date" validate:"notblank"`
	Description string    `json:"description" validate:"notblank"`
	Image       string    `json:"image"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a Announcement) RecordID() string           { return a.ID }
func (a Announcement) RecordCreatedAt() time.Time { return a.CreatedAt }

// WithRecordID returns a copy of a carrying id.
func (a Announcement) WithRecordID(id string) Announcement {
	a.ID = id
	return a
}

// SameSubmission compares the text fields a client submits. The image is
// excluded since the server renames it.
func (a Announcement) SameSubmission(o Announcement) bool {
	return a.Title == o.Title && a.Date == o.Date && a.Description == o.Description
}

// AnnouncementPatch lists the fields an update may replace. Nil fields are
// left untouched. A new image is stored and assigned separately.
type AnnouncementPatch struct {
	Title       *string
	Date        *string
	Description *string
}

// Apply copies the non-nil fields of p onto a.
func (p AnnouncementPatch) Apply(a *Announcement) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
}

package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/campus/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanInquiry scans a row laid out as inquiryColumns.
func scanInquiry(row scannable) (*model.Inquiry, error) {
	var in model.Inquiry
	var phone sql.NullString
	if err := row.Scan(
		&in.ID,
		&in.Name,
		&in.Email,
		&phone,
		&in.Program,
		&in.Grade,
		&in.Message,
		&in.Timestamp,
		&in.CreatedAt,
		&in.UpdatedAt,
	); err != nil {
		return nil, err
	}
	in.Phone = phone.String
	in.Timestamp = in.Timestamp.UTC()
	in.CreatedAt = in.CreatedAt.UTC()
	in.UpdatedAt = in.UpdatedAt.UTC()
	return &in, nil
}

// scanAnnouncement scans a row laid out as announcementColumns.
func scanAnnouncement(row scannable) (*model.Announcement, error) {
	var a model.Announcement
	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Date,
		&a.Description,
		&a.Image,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// scanSchool scans a row laid out as schoolColumns.
func scanSchool(row scannable) (*model.School, error) {
	var s model.School
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Image,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

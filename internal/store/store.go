// Package store defines the persistence interface shared by the database
// backends.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/alfredjeanlab/campus/internal/model"
)

// ErrNotFound is returned when a record with the requested identifier does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence interface for campus records. Each call is
// atomic for the single record it touches.
type Store interface {
	// Inquiries are append-only.
	CreateInquiry(ctx context.Context, inquiry *model.Inquiry) error
	GetInquiry(ctx context.Context, id string) (*model.Inquiry, error)
	ListInquiries(ctx context.Context) ([]*model.Inquiry, error) // newest timestamp first

	// Announcements
	CreateAnnouncement(ctx context.Context, a *model.Announcement) error
	GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]*model.Announcement, error) // newest first
	UpdateAnnouncement(ctx context.Context, a *model.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) (*model.Announcement, error)

	// Schools
	CreateSchool(ctx context.Context, s *model.School) error
	GetSchool(ctx context.Context, id string) (*model.School, error)
	ListSchools(ctx context.Context) ([]*model.School, error) // newest first
	UpdateSchool(ctx context.Context, s *model.School) error
	DeleteSchool(ctx context.Context, id string) (*model.School, error)

	Close() error
}

// IsPostgresURL reports whether databaseURL addresses a PostgreSQL server
// rather than a local SQLite file.
func IsPostgresURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

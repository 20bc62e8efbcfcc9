// Package client talks to the campus HTTP API and keeps live, optimistically
// updated copies of its collections in sync with the realtime feed.
package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alfredjeanlab/campus/internal/model"
)

// CampusClient is the interface CLI commands use to reach the campus server.
// It is implemented by HTTPClient.
type CampusClient interface {
	// Inquiries
	CreateInquiry(ctx context.Context, req *InquiryRequest) (*model.Inquiry, error)
	GetInquiry(ctx context.Context, id string) (*model.Inquiry, error)
	ListInquiries(ctx context.Context) ([]model.Inquiry, error)

	// Announcements
	CreateAnnouncement(ctx context.Context, req *AnnouncementRequest) (*model.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, id string, req *AnnouncementUpdate) (*model.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error

	// Schools
	CreateSchool(ctx context.Context, req *SchoolRequest) (*model.School, error)
	GetSchool(ctx context.Context, id string) (*model.School, error)
	ListSchools(ctx context.Context) ([]model.School, error)
	UpdateSchool(ctx context.Context, id string, req *SchoolUpdate) (*model.School, error)
	DeleteSchool(ctx context.Context, id string) error

	// Health
	Health(ctx context.Context) (*HealthResponse, error)

	// Lifecycle
	Close() error
}

// Image is a file attached to a create or update request.
type Image struct {
	Filename string
	Data     []byte
}

// ImageFromFile reads the image at path.
func ImageFromFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &Image{Filename: filepath.Base(path), Data: data}, nil
}

// InquiryRequest holds the fields of a contact-form submission.
type InquiryRequest struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Program     string     `json:"program"`
	Grade       string     `json:"grade"`
	Message     string     `json:"message"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	ClientToken string     `json:"clientToken,omitempty"`
}

// AnnouncementRequest holds parameters for creating an announcement.
type AnnouncementRequest struct {
	Title       string
	Date        string
	Description string
	Image       *Image
	ClientToken string
}

// AnnouncementUpdate holds optional parameters for updating an announcement.
// Nil fields mean "don't change".
type AnnouncementUpdate struct {
	Title       *string
	Date        *string
	Description *string
	Image       *Image
	ClientToken string
}

// SchoolRequest holds parameters for creating a school.
type SchoolRequest struct {
	Name        string
	Image       *Image
	ClientToken string
}

// SchoolUpdate holds optional parameters for updating a school.
type SchoolUpdate struct {
	Name        *string
	Image       *Image
	ClientToken string
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

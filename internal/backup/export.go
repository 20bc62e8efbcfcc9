package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version           string    `json:"version"`
	Type              string    `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	InquiryCount      int       `json:"inquiry_count"`
	AnnouncementCount int       `json:"announcement_count"`
	SchoolCount       int       `json:"school_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every inquiry, announcement and school in the store as
// JSONL to w, each collection sorted by ID.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	inquiries, err := s.ListInquiries(ctx)
	if err != nil {
		return fmt.Errorf("list inquiries: %w", err)
	}
	announcements, err := s.ListAnnouncements(ctx)
	if err != nil {
		return fmt.Errorf("list announcements: %w", err)
	}
	schools, err := s.ListSchools(ctx)
	if err != nil {
		return fmt.Errorf("list schools: %w", err)
	}

	sortByID(inquiries)
	sortByID(announcements)
	sortByID(schools)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:           "1",
		Type:              "header",
		Timestamp:         time.Now().UTC(),
		InquiryCount:      len(inquiries),
		AnnouncementCount: len(announcements),
		SchoolCount:       len(schools),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, inq := range inquiries {
		if err := enc.Encode(record{Type: model.CollectionInquiries.Entity(), Data: inq}); err != nil {
			return fmt.Errorf("encode inquiry %s: %w", inq.ID, err)
		}
	}
	for _, a := range announcements {
		if err := enc.Encode(record{Type: model.CollectionAnnouncements.Entity(), Data: a}); err != nil {
			return fmt.Errorf("encode announcement %s: %w", a.ID, err)
		}
	}
	for _, sc := range schools {
		if err := enc.Encode(record{Type: model.CollectionSchools.Entity(), Data: sc}); err != nil {
			return fmt.Errorf("encode school %s: %w", sc.ID, err)
		}
	}

	return nil
}

func sortByID[T model.Record](recs []T) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordID() < recs[j].RecordID()
	})
}

package model

import (
	"fmt"
	"time"
)

// Collection names one of the persisted record sets.
type Collection string

const (
	CollectionInquiries     Collection = "inquiries"
	CollectionAnnouncements Collection = "announcements"
	CollectionSchools       Collection = "schools"
)

// Collections lists every collection in display order.
var Collections = []Collection{CollectionAnnouncements, CollectionSchools, CollectionInquiries}

// Entity returns the singular name used as the realtime event prefix.
func (c Collection) Entity() string {
	switch c {
	case CollectionInquiries:
		return "inquiry"
	case CollectionAnnouncements:
		return "announcement"
	case CollectionSchools:
		return "school"
	}
	return ""
}

// IDPrefix returns the prefix carried by generated identifiers.
func (c Collection) IDPrefix() string {
	switch c {
	case CollectionInquiries:
		return "inq-"
	case CollectionAnnouncements:
		return "ann-"
	case CollectionSchools:
		return "sch-"
	}
	return ""
}

// Mutable reports whether records in the collection can be updated or deleted.
func (c Collection) Mutable() bool {
	return c == CollectionAnnouncements || c == CollectionSchools
}

// IsValid reports whether c is a known collection.
func (c Collection) IsValid() bool {
	return c.Entity() != ""
}

// ParseCollection accepts either the plural collection name or the singular
// entity name.
func ParseCollection(s string) (Collection, error) {
	for _, c := range Collections {
		if s == string(c) || s == c.Entity() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// Record is implemented by every persisted record type.
type Record interface {
	RecordID() string
	RecordCreatedAt() time.Time
}

// Package events defines the change events emitted after every successful
// write and the envelope they travel in over the realtime channel and NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/campus/internal/model"
)

// Op is the kind of change an event reports.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Realtime event names.
const (
	NameConnected           = "connected"
	NameInquiryCreated      = "inquiry_created"
	NameAnnouncementCreated = "announcement_created"
	NameAnnouncementUpdated = "announcement_updated"
	NameAnnouncementDeleted = "announcement_deleted"
	NameSchoolCreated       = "school_created"
	NameSchoolUpdated       = "school_updated"
	NameSchoolDeleted       = "school_deleted"
)

// NATS subject prefix. Subjects are campus.<entity>.<op>.
const SubjectPrefix = "campus"

// SubjectAll matches every change event subject.
const SubjectAll = SubjectPrefix + ".>"

// EventName returns the realtime name for op on collection c, e.g. "school_created".
func EventName(c model.Collection, op Op) string {
	return c.Entity() + "_" + string(op)
}

// Subject returns the NATS subject for op on collection c.
func Subject(c model.Collection, op Op) string {
	return SubjectPrefix + "." + c.Entity() + "." + string(op)
}

// Event is a change notification. The set of implementations is closed.
type Event interface {
	Collection() model.Collection
	Op() Op
	// Payload is the value broadcast as the event data: the full post-write
	// record, or a Deleted marker.
	Payload() any
}

// Name returns the realtime event name for e.
func Name(e Event) string { return EventName(e.Collection(), e.Op()) }

// Deleted is the payload of every *_deleted event.
type Deleted struct {
	ID string `json:"id"`
}

type InquiryCreated struct{ Inquiry *model.Inquiry }

type AnnouncementCreated struct{ Announcement *model.Announcement }
type AnnouncementUpdated struct{ Announcement *model.Announcement }
type AnnouncementDeleted struct{ ID string }

type SchoolCreated struct{ School *model.School }
type SchoolUpdated struct{ School *model.School }
type SchoolDeleted struct{ ID string }

func (InquiryCreated) Collection() model.Collection { return model.CollectionInquiries }
func (InquiryCreated) Op() Op                       { return OpCreated }
func (e InquiryCreated) Payload() any               { return e.Inquiry }

func (AnnouncementCreated) Collection() model.Collection { return model.CollectionAnnouncements }
func (AnnouncementCreated) Op() Op                       { return OpCreated }
func (e AnnouncementCreated) Payload() any               { return e.Announcement }

func (AnnouncementUpdated) Collection() model.Collection { return model.CollectionAnnouncements }
func (AnnouncementUpdated) Op() Op                       { return OpUpdated }
func (e AnnouncementUpdated) Payload() any               { return e.Announcement }

func (AnnouncementDeleted) Collection() model.Collection { return model.CollectionAnnouncements }
func (AnnouncementDeleted) Op() Op                       { return OpDeleted }
func (e AnnouncementDeleted) Payload() any               { return Deleted{ID: e.ID} }

func (SchoolCreated) Collection() model.Collection { return model.CollectionSchools }
func (SchoolCreated) Op() Op                       { return OpCreated }
func (e SchoolCreated) Payload() any               { return e.School }

func (SchoolUpdated) Collection() model.Collection { return model.CollectionSchools }
func (SchoolUpdated) Op() Op                       { return OpUpdated }
func (e SchoolUpdated) Payload() any               { return e.School }

func (SchoolDeleted) Collection() model.Collection { return model.CollectionSchools }
func (SchoolDeleted) Op() Op                       { return OpDeleted }
func (e SchoolDeleted) Payload() any               { return Deleted{ID: e.ID} }

// Envelope is the wire form of an event. ClientToken echoes the idempotency
// token supplied with the write request, if any; it is not part of the record.
type Envelope struct {
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data,omitempty"`
	ClientToken string          `json:"clientToken,omitempty"`
}

// Encode wraps e in an envelope.
func Encode(e Event, clientToken string) (Envelope, error) {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling %s payload: %w", Name(e), err)
	}
	return Envelope{Event: Name(e), Data: data, ClientToken: clientToken}, nil
}

// Connected is the data of the greeting sent to each new realtime client.
type Connected struct {
	ClientID string `json:"clientId"`
}

// Decode maps an envelope back onto its typed event.
func Decode(env Envelope) (Event, error) {
	switch env.Event {
	case NameInquiryCreated:
		var v model.Inquiry
		return InquiryCreated{Inquiry: &v}, unmarshal(env, &v)
	case NameAnnouncementCreated:
		var v model.Announcement
		return AnnouncementCreated{Announcement: &v}, unmarshal(env, &v)
	case NameAnnouncementUpdated:
		var v model.Announcement
		return AnnouncementUpdated{Announcement: &v}, unmarshal(env, &v)
	case NameAnnouncementDeleted:
		var d Deleted
		err := unmarshal(env, &d)
		return AnnouncementDeleted{ID: d.ID}, err
	case NameSchoolCreated:
		var v model.School
		return SchoolCreated{School: &v}, unmarshal(env, &v)
	case NameSchoolUpdated:
		var v model.School
		return SchoolUpdated{School: &v}, unmarshal(env, &v)
	case NameSchoolDeleted:
		var d Deleted
		err := unmarshal(env, &d)
		return SchoolDeleted{ID: d.ID}, err
	}
	return nil, fmt.Errorf("unknown event %q", env.Event)
}

func unmarshal(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("event %s has no data", env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", env.Event, err)
	}
	return nil
}

// Publisher forwards envelopes to an external bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, env Envelope) error
	Close() error
}

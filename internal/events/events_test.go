package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/campus/internal/model"
)

func TestEventNames(t *testing.T) {
	for _, tc := range []struct {
		ev      Event
		name    string
		subject string
	}{
		{InquiryCreated{}, NameInquiryCreated, "campus.inquiry.created"},
		{AnnouncementCreated{}, NameAnnouncementCreated, "campus.announcement.created"},
		{AnnouncementUpdated{}, NameAnnouncementUpdated, "campus.announcement.updated"},
		{AnnouncementDeleted{}, NameAnnouncementDeleted, "campus.announcement.deleted"},
		{SchoolCreated{}, NameSchoolCreated, "campus.school.created"},
		{SchoolUpdated{}, NameSchoolUpdated, "campus.school.updated"},
		{SchoolDeleted{}, NameSchoolDeleted, "campus.school.deleted"},
	} {
		if got := Name(tc.ev); got != tc.name {
			t.Errorf("Name(%T) = %q, want %q", tc.ev, got, tc.name)
		}
		if got := Subject(tc.ev.Collection(), tc.ev.Op()); got != tc.subject {
			t.Errorf("Subject(%T) = %q, want %q", tc.ev, got, tc.subject)
		}
	}
}

func TestEncode_DeletedPayload(t *testing.T) {
	env, err := Encode(SchoolDeleted{ID: "sch-1"}, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if env.Event != NameSchoolDeleted {
		t.Errorf("Event = %q", env.Event)
	}
	if string(env.Data) != `{"id":"sch-1"}` {
		t.Errorf("Data = %s, want {\"id\":\"sch-1\"}", env.Data)
	}
}

func TestEncodeDecode_CarriesRecordAndToken(t *testing.T) {
	school := &model.School{ID: "sch-1", Name: "North", Image: "n.png", ImageURL: "http://x/uploads/n.png"}
	env, err := Encode(SchoolCreated{School: school}, "tok-123")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Envelope
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ClientToken != "tok-123" {
		t.Errorf("ClientToken = %q", back.ClientToken)
	}

	ev, err := Decode(back)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	created, ok := ev.(SchoolCreated)
	if !ok {
		t.Fatalf("Decode returned %T, want SchoolCreated", ev)
	}
	if created.School.ID != "sch-1" || created.School.ImageURL != school.ImageURL {
		t.Errorf("decoded school = %+v", created.School)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(Envelope{Event: "review_created", Data: json.RawMessage(`{}`)}); err == nil {
		t.Error("expected error for unknown event")
	}
	if _, err := Decode(Envelope{Event: NameAnnouncementUpdated}); err == nil {
		t.Error("expected error for missing data")
	}
	if _, err := Decode(Envelope{Event: NameInquiryCreated, Data: json.RawMessage(`[1,2]`)}); err == nil {
		t.Error("expected error for malformed data")
	}
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = NoopPublisher{}
	if err := pub.Publish(context.Background(), "campus.school.created", Envelope{Event: NameSchoolCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("campus.announcement.deleted", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	env, _ := Encode(AnnouncementDeleted{ID: "ann-9"}, "")
	if err := pub.Publish(context.Background(), Subject(model.CollectionAnnouncements, OpDeleted), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-ch:
		if got := msg.Header.Get(HeaderEvent); got != NameAnnouncementDeleted {
			t.Errorf("header %s = %q", HeaderEvent, got)
		}
		var got Envelope
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if string(got.Data) != `{"id":"ann-9"}` {
			t.Errorf("data = %s", got.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

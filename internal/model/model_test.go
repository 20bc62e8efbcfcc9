package model

import "testing"

func TestCollection_Entity(t *testing.T) {
	for _, tc := range []struct {
		c    Collection
		want string
	}{
		{CollectionInquiries, "inquiry"},
		{CollectionAnnouncements, "announcement"},
		{CollectionSchools, "school"},
		{Collection("bogus"), ""},
	} {
		if got := tc.c.Entity(); got != tc.want {
			t.Errorf("Collection(%q).Entity() = %q, want %q", tc.c, got, tc.want)
		}
	}
}

func TestCollection_Mutable(t *testing.T) {
	if CollectionInquiries.Mutable() {
		t.Error("inquiries should be append-only")
	}
	if !CollectionAnnouncements.Mutable() || !CollectionSchools.Mutable() {
		t.Error("announcements and schools should be mutable")
	}
}

func TestParseCollection(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Collection
		wantErr bool
	}{
		{"schools", CollectionSchools, false},
		{"school", CollectionSchools, false},
		{"announcement", CollectionAnnouncements, false},
		{"inquiries", CollectionInquiries, false},
		{"reviews", "", true},
	} {
		got, err := ParseCollection(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseCollection(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseCollection(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestImageURL(t *testing.T) {
	for _, tc := range []struct {
		origin, file, want string
	}{
		{"http://localhost:3001", "a.png", "http://localhost:3001/uploads/a.png"},
		{"https://example.org/", "b.jpg", "https://example.org/uploads/b.jpg"},
		{"http://localhost:3001", "", ""},
	} {
		if got := ImageURL(tc.origin, tc.file); got != tc.want {
			t.Errorf("ImageURL(%q, %q) = %q, want %q", tc.origin, tc.file, got, tc.want)
		}
	}
}

func TestAnnouncementPatch_Apply(t *testing.T) {
	a := Announcement{ID: "ann-1", Title: "Old", Date: "July 2025", Description: "d", Image: "x.png"}
	title := "New"
	AnnouncementPatch{Title: &title}.Apply(&a)

	if a.Title != "New" {
		t.Errorf("Title = %q, want %q", a.Title, "New")
	}
	if a.Date != "July 2025" || a.Image != "x.png" {
		t.Errorf("untouched fields changed: %+v", a)
	}
}

func TestSameSubmission(t *testing.T) {
	a := Inquiry{Name: "Ada", Email: "ada@example.org", Program: "STEM", Grade: "11", Message: "hi"}
	b := a
	b.ID = "inq-123"
	if !a.SameSubmission(b) {
		t.Error("identical submitted fields should match regardless of id")
	}
	b.Message = "hello"
	if a.SameSubmission(b) {
		t.Error("different message should not match")
	}

	s := School{Name: "North Campus", Image: "tmp.png"}
	if !s.SameSubmission(School{Name: "North Campus", Image: "01J.png"}) {
		t.Error("school match should ignore image filename")
	}
}

package idgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/alfredjeanlab/campus/internal/model"
)

func TestRecordID_Prefix(t *testing.T) {
	for _, c := range model.Collections {
		id, err := RecordID(c)
		if err != nil {
			t.Fatalf("RecordID(%s) error: %v", c, err)
		}
		pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(c.IDPrefix()) + `[a-zA-Z0-9]+$`)
		if !pattern.MatchString(id) {
			t.Errorf("RecordID(%s) = %q, does not match %s", c, id, pattern)
		}
		if wantLen := len(c.IDPrefix()) + Length; len(id) != wantLen {
			t.Errorf("RecordID(%s) length = %d, want %d", c, len(id), wantLen)
		}
	}
}

func TestRecordID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := RecordID(model.CollectionSchools)
		if err != nil {
			t.Fatalf("RecordID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestFilename(t *testing.T) {
	a, b := Filename(".png"), Filename(".png")
	if a == b {
		t.Fatalf("Filename returned duplicate %q", a)
	}
	if !strings.HasSuffix(a, ".png") {
		t.Errorf("Filename(.png) = %q, missing extension", a)
	}
	if a != strings.ToLower(a) {
		t.Errorf("Filename should be lowercase, got %q", a)
	}
}

func TestTempID(t *testing.T) {
	id := TempID()
	if !strings.HasPrefix(id, TempPrefix) {
		t.Errorf("TempID() = %q, missing %q prefix", id, TempPrefix)
	}
	if TempID() == id {
		t.Error("TempID should be random")
	}
	if Token() == Token() {
		t.Error("Token should be random")
	}
}

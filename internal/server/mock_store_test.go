package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/store"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

// mockStore is an in-memory store.Store. Records are copied on the way in
// and out so handlers cannot mutate stored state through pointers.
type mockStore struct {
	mu            sync.Mutex
	inquiries     map[string]model.Inquiry
	announcements map[string]model.Announcement
	schools       map[string]model.School

	// listErr, when non-nil, is returned by every List call.
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		inquiries:     make(map[string]model.Inquiry),
		announcements: make(map[string]model.Announcement),
		schools:       make(map[string]model.School),
	}
}

func (m *mockStore) CreateInquiry(_ context.Context, inq *model.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inquiries[inq.ID] = *inq
	return nil
}

func (m *mockStore) GetInquiry(_ context.Context, id string) (*model.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.inquiries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *mockStore) ListInquiries(_ context.Context) ([]*model.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Inquiry
	for _, v := range m.inquiries {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *mockStore) CreateAnnouncement(_ context.Context, a *model.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := *a
	v.ImageURL = ""
	m.announcements[a.ID] = v
	return nil
}

func (m *mockStore) GetAnnouncement(_ context.Context, id string) (*model.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.announcements[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *mockStore) ListAnnouncements(_ context.Context) ([]*model.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Announcement
	for _, v := range m.announcements {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) UpdateAnnouncement(_ context.Context, a *model.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.announcements[a.ID]; !ok {
		return store.ErrNotFound
	}
	v := *a
	v.ImageURL = ""
	m.announcements[a.ID] = v
	return nil
}

func (m *mockStore) DeleteAnnouncement(_ context.Context, id string) (*model.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.announcements[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.announcements, id)
	return &v, nil
}

func (m *mockStore) CreateSchool(_ context.Context, s *model.School) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := *s
	v.ImageURL = ""
	m.schools[s.ID] = v
	return nil
}

func (m *mockStore) GetSchool(_ context.Context, id string) (*model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.schools[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *mockStore) ListSchools(_ context.Context) ([]*model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.School
	for _, v := range m.schools {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) UpdateSchool(_ context.Context, s *model.School) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schools[s.ID]; !ok {
		return store.ErrNotFound
	}
	v := *s
	v.ImageURL = ""
	m.schools[s.ID] = v
	return nil
}

func (m *mockStore) DeleteSchool(_ context.Context, id string) (*model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.schools[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.schools, id)
	return &v, nil
}

func (m *mockStore) Close() error { return nil }

// memUploads is an in-memory uploads.Store.
type memUploads struct {
	mu    sync.Mutex
	files map[string][]byte
	types map[string]string
}

func newMemUploads() *memUploads {
	return &memUploads{files: make(map[string][]byte), types: make(map[string]string)}
}

func (u *memUploads) Save(_ context.Context, name, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[name] = data
	u.types[name] = contentType
	return nil
}

func (u *memUploads) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.files[name]
	if !ok {
		return nil, "", uploads.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), u.types[name], nil
}

func (u *memUploads) Delete(_ context.Context, name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.files[name]; !ok {
		return uploads.ErrNotFound
	}
	delete(u.files, name)
	delete(u.types, name)
	return nil
}

func (u *memUploads) has(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.files[name]
	return ok
}

func (u *memUploads) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.files)
}

// recordingPublisher records every published envelope.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	envs     []events.Envelope
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() ([]string, []events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...), append([]events.Envelope(nil), p.envs...)
}

var errBusDown = errors.New("bus down")

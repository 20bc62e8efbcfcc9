package server

import (
	"net/http"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

// handleListAnnouncements handles GET /api/announcements.
func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListAnnouncements(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "announcements", "fetching")
		return
	}
	if list == nil {
		list = []*model.Announcement{}
	}
	origin := s.origin(r)
	for _, a := range list {
		a.ResolveImage(origin)
	}
	writeData(w, http.StatusOK, list)
}

// handleGetAnnouncement handles GET /api/announcements/{id}.
func (s *Server) handleGetAnnouncement(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAnnouncement(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "announcement", "fetching")
		return
	}
	a.ResolveImage(s.origin(r))
	writeData(w, http.StatusOK, a)
}

// handleCreateAnnouncement handles POST /api/announcements.
func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := parseWriteForm(w, r); err != nil {
		writeFormError(w, err)
		return
	}
	ctx := r.Context()

	now := time.Now().UTC()
	a := &model.Announcement{
		Title:       r.PostFormValue("title"),
		Date:        r.PostFormValue("date"),
		Description: r.PostFormValue("description"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ve := model.Check(a)
	img, err := formImage(r, ve, true)
	if err != nil {
		s.writeStoreError(w, err, "announcement", "creating")
		return
	}
	if ve.HasErrors() {
		s.writeStoreError(w, ve, "announcement", "creating")
		return
	}

	a.ID, err = idgen.RecordID(model.CollectionAnnouncements)
	if err != nil {
		s.writeStoreError(w, err, "announcement", "creating")
		return
	}
	if err := uploads.Put(ctx, s.uploads, img); err != nil {
		s.writeStoreError(w, err, "announcement", "creating")
		return
	}
	a.Image = img.Name
	if err := s.store.CreateAnnouncement(ctx, a); err != nil {
		s.removeImage(ctx, img.Name)
		s.writeStoreError(w, err, "announcement", "creating")
		return
	}
	s.log.Info("announcement created", "id", a.ID, "image", a.Image)

	a.ResolveImage(s.origin(r))
	token, _ := formField(r, "clientToken")
	s.notify(ctx, events.AnnouncementCreated{Announcement: a}, token)
	writeData(w, http.StatusCreated, a)
}

// handleUpdateAnnouncement handles PUT /api/announcements/{id}. Only the
// submitted fields are replaced; the image is optional.
func (s *Server) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := parseWriteForm(w, r); err != nil {
		writeFormError(w, err)
		return
	}
	ctx := r.Context()

	current, err := s.store.GetAnnouncement(ctx, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "announcement", "updating")
		return
	}

	var patch model.AnnouncementPatch
	if v, ok := formField(r, "title"); ok {
		patch.Title = &v
	}
	if v, ok := formField(r, "date"); ok {
		patch.Date = &v
	}
	if v, ok := formField(r, "description"); ok {
		patch.Description = &v
	}

	updated := *current
	patch.Apply(&updated)
	ve := model.Check(&updated)
	img, err := formImage(r, ve, false)
	if err != nil {
		s.writeStoreError(w, err, "announcement", "updating")
		return
	}
	if ve.HasErrors() {
		s.writeStoreError(w, ve, "announcement", "updating")
		return
	}

	if img != nil {
		if err := uploads.Put(ctx, s.uploads, img); err != nil {
			s.writeStoreError(w, err, "announcement", "updating")
			return
		}
		updated.Image = img.Name
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAnnouncement(ctx, &updated); err != nil {
		if img != nil {
			s.removeImage(ctx, img.Name)
		}
		s.writeStoreError(w, err, "announcement", "updating")
		return
	}
	if img != nil && current.Image != updated.Image {
		s.removeImage(ctx, current.Image)
	}
	s.log.Info("announcement updated", "id", updated.ID)

	updated.ResolveImage(s.origin(r))
	token, _ := formField(r, "clientToken")
	s.notify(ctx, events.AnnouncementUpdated{Announcement: &updated}, token)
	writeData(w, http.StatusOK, &updated)
}

// handleDeleteAnnouncement handles DELETE /api/announcements/{id}.
func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.store.DeleteAnnouncement(ctx, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "announcement", "deleting")
		return
	}
	s.removeImage(ctx, a.Image)
	s.log.Info("announcement deleted", "id", a.ID)

	s.notify(ctx, events.AnnouncementDeleted{ID: a.ID}, r.URL.Query().Get("clientToken"))
	writeData(w, http.StatusOK, events.Deleted{ID: a.ID})
}

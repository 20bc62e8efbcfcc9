package server

import (
	"net/http"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

// handleListSchools handles GET /api/schools.
func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSchools(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "schools", "fetching")
		return
	}
	if list == nil {
		list = []*model.School{}
	}
	origin := s.origin(r)
	for _, sc := range list {
		sc.ResolveImage(origin)
	}
	writeData(w, http.StatusOK, list)
}

// handleGetSchool handles GET /api/schools/{id}.
func (s *Server) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.GetSchool(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "school", "fetching")
		return
	}
	sc.ResolveImage(s.origin(r))
	writeData(w, http.StatusOK, sc)
}

// handleCreateSchool handles POST /api/schools.
func (s *Server) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	if err := parseWriteForm(w, r); err != nil {
		writeFormError(w, err)
		return
	}
	ctx := r.Context()

	now := time.Now().UTC()
	sc := &model.School{
		Name:      r.PostFormValue("name"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ve := model.Check(sc)
	img, err := formImage(r, ve, true)
	if err != nil {
		s.writeStoreError(w, err, "school", "creating")
		return
	}
	if ve.HasErrors() {
		s.writeStoreError(w, ve, "school", "creating")
		return
	}

	sc.ID, err = idgen.RecordID(model.CollectionSchools)
	if err != nil {
		s.writeStoreError(w, err, "school", "creating")
		return
	}
	if err := uploads.Put(ctx, s.uploads, img); err != nil {
		s.writeStoreError(w, err, "school", "creating")
		return
	}
	sc.Image = img.Name
	if err := s.store.CreateSchool(ctx, sc); err != nil {
		s.removeImage(ctx, img.Name)
		s.writeStoreError(w, err, "school", "creating")
		return
	}
	s.log.Info("school created", "id", sc.ID, "image", sc.Image)

	sc.ResolveImage(s.origin(r))
	token, _ := formField(r, "clientToken")
	s.notify(ctx, events.SchoolCreated{School: sc}, token)
	writeData(w, http.StatusCreated, sc)
}

// handleUpdateSchool handles PUT /api/schools/{id}.
func (s *Server) handleUpdateSchool(w http.ResponseWriter, r *http.Request) {
	if err := parseWriteForm(w, r); err != nil {
		writeFormError(w, err)
		return
	}
	ctx := r.Context()

	current, err := s.store.GetSchool(ctx, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "school", "updating")
		return
	}

	var patch model.SchoolPatch
	if v, ok := formField(r, "name"); ok {
		patch.Name = &v
	}
	updated := *current
	patch.Apply(&updated)
	ve := model.Check(&updated)
	img, err := formImage(r, ve, false)
	if err != nil {
		s.writeStoreError(w, err, "school", "updating")
		return
	}
	if ve.HasErrors() {
		s.writeStoreError(w, ve, "school", "updating")
		return
	}

	if img != nil {
		if err := uploads.Put(ctx, s.uploads, img); err != nil {
			s.writeStoreError(w, err, "school", "updating")
			return
		}
		updated.Image = img.Name
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateSchool(ctx, &updated); err != nil {
		if img != nil {
			s.removeImage(ctx, img.Name)
		}
		s.writeStoreError(w, err, "school", "updating")
		return
	}
	if img != nil && current.Image != updated.Image {
		s.removeImage(ctx, current.Image)
	}
	s.log.Info("school updated", "id", updated.ID)

	updated.ResolveImage(s.origin(r))
	token, _ := formField(r, "clientToken")
	s.notify(ctx, events.SchoolUpdated{School: &updated}, token)
	writeData(w, http.StatusOK, &updated)
}

// handleDeleteSchool handles DELETE /api/schools/{id}.
func (s *Server) handleDeleteSchool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, err := s.store.DeleteSchool(ctx, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "school", "deleting")
		return
	}
	s.removeImage(ctx, sc.Image)
	s.log.Info("school deleted", "id", sc.ID)

	s.notify(ctx, events.SchoolDeleted{ID: sc.ID}, r.URL.Query().Get("clientToken"))
	writeData(w, http.StatusOK, events.Deleted{ID: sc.ID})
}

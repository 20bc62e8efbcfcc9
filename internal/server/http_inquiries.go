package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// createInquiryInput is the JSON body of POST /api/inquiries.
type createInquiryInput struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Program     string     `json:"program"`
	Grade       string     `json:"grade"`
	Message     string     `json:"message"`
	Timestamp   *time.Time `json:"timestamp"`
	ClientToken string     `json:"clientToken"`
}

// handleCreateInquiry handles POST /api/inquiries.
func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	var in createInquiryInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	now := time.Now().UTC()
	inq := &model.Inquiry{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Program:   in.Program,
		Grade:     in.Grade,
		Message:   in.Message,
		Timestamp: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		inq.Timestamp = in.Timestamp.UTC()
	}
	if err := model.Validate(inq); err != nil {
		s.writeStoreError(w, err, "inquiry", "saving")
		return
	}

	id, err := idgen.RecordID(model.CollectionInquiries)
	if err != nil {
		s.writeStoreError(w, err, "inquiry", "saving")
		return
	}
	inq.ID = id
	if err := s.store.CreateInquiry(r.Context(), inq); err != nil {
		s.writeStoreError(w, err, "inquiry", "saving")
		return
	}
	s.log.Info("inquiry saved", "id", inq.ID, "program", inq.Program)

	s.notify(r.Context(), events.InquiryCreated{Inquiry: inq}, in.ClientToken)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Inquiry saved successfully!",
		"id":      inq.ID,
		"data":    inq,
	})
}

// handleListInquiries handles GET /api/inquiries.
func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListInquiries(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "inquiries", "fetching")
		return
	}
	if list == nil {
		list = []*model.Inquiry{}
	}
	writeData(w, http.StatusOK, list)
}

// handleGetInquiry handles GET /api/inquiries/{id}.
func (s *Server) handleGetInquiry(w http.ResponseWriter, r *http.Request) {
	inq, err := s.store.GetInquiry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "inquiry", "fetching")
		return
	}
	writeData(w, http.StatusOK, inq)
}

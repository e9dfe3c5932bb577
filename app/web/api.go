package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/apptrack/apptrack/app/query"
	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
	"github.com/apptrack/apptrack/app/store/persistence"
)

// APIApplication represents a record in JSON API responses
type APIApplication struct {
	ID              string    `json:"id"`
	Company         string    `json:"company"`
	Role            string    `json:"role"`
	JobType         string    `json:"job_type"`
	Location        string    `json:"location"`
	ApplicationDate string    `json:"application_date"`
	Status          string    `json:"status"`
	JobLink         string    `json:"job_link,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// APIListResponse is the JSON response for the applications list
type APIListResponse struct {
	Applications []APIApplication `json:"applications"`
	Total        int              `json:"total"` // after filtering
}

// APIUndoResponse is the JSON response for an undo request
type APIUndoResponse struct {
	Restored    bool            `json:"restored"`
	Application *APIApplication `json:"application,omitempty"`
}

// applicationRequest is the JSON payload for create and update
type applicationRequest struct {
	Company         string `json:"company"`
	Role            string `json:"role"`
	JobType         string `json:"job_type"`
	Location        string `json:"location"`
	ApplicationDate string `json:"application_date"`
	Status          string `json:"status"`
	JobLink         string `json:"job_link"`
	Notes           string `json:"notes"`
}

// toInput converts the request payload into a typed store input. Enum and
// date parse failures are validation errors for the caller.
func (req applicationRequest) toInput() (store.JobInput, error) {
	jobType, err := enums.ParseJobType(req.JobType)
	if err != nil {
		return store.JobInput{}, err
	}
	location, err := enums.ParseLocation(req.Location)
	if err != nil {
		return store.JobInput{}, err
	}
	appliedOn, err := store.ParseDate(req.ApplicationDate)
	if err != nil {
		return store.JobInput{}, err
	}
	status, err := enums.ParseStatus(req.Status)
	if err != nil {
		return store.JobInput{}, err
	}

	return store.JobInput{
		Company:   req.Company,
		Role:      req.Role,
		JobType:   jobType,
		Location:  location,
		AppliedOn: appliedOn,
		Status:    status,
		JobLink:   req.JobLink,
		Notes:     req.Notes,
	}, nil
}

// toAPIApplication converts a store record to the API representation
func toAPIApplication(rec store.JobApplication) APIApplication {
	return APIApplication{
		ID:              rec.ID,
		Company:         rec.Company,
		Role:            rec.Role,
		JobType:         rec.JobType.String(),
		Location:        rec.Location.String(),
		ApplicationDate: rec.AppliedOn.String(),
		Status:          rec.Status.String(),
		JobLink:         rec.JobLink,
		Notes:           rec.Notes,
		CreatedAt:       rec.CreatedAt,
	}
}

// handleListApplications returns the filtered, sorted view
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortMode, err := enums.ParseSortMode(q.Get("sort"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec := query.FilterSpec{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		JobType:  q.Get("type"),
		Location: q.Get("location"),
		Sort:     sortMode,
	}

	records := s.tracker.List(spec)
	resp := APIListResponse{Applications: make([]APIApplication, 0, len(records)), Total: len(records)}
	for _, rec := range records {
		resp.Applications = append(resp.Applications, toAPIApplication(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetApplication returns a single record by id
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	rec, err := s.tracker.Store.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to load application")
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIApplication(rec))
}

// handleCreateApplication adds a new record
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.tracker.Add(r.Context(), input)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toAPIApplication(rec))
}

// handleUpdateApplication replaces the mutable fields of a record
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.tracker.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIApplication(rec))
}

// handleDeleteApplication removes a record, opening the undo window
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "deleted"})
}

// handleUndo restores the last removed record if the window is still open
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.tracker.UndoDelete(r.Context())
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusOK, APIUndoResponse{Restored: false})
		return
	}

	app := toAPIApplication(rec)
	s.writeJSON(w, http.StatusOK, APIUndoResponse{Restored: true, Application: &app})
}

// writeMutationError maps store errors to API status codes. Quota gets its
// own status so clients can show a storage-specific message.
func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.writeJSONError(w, http.StatusNotFound, "application not found")
	case errors.Is(err, persistence.ErrQuotaExceeded):
		s.writeJSONError(w, http.StatusInsufficientStorage, "storage quota exceeded, free up space and retry")
	default:
		log.Printf("[ERROR] mutation failed: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("operation failed: %v", err))
	}
}

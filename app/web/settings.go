package web

import (
	"encoding/json"
	"net/http"

	"github.com/apptrack/apptrack/app/store/enums"
)

// APIThemeResponse carries the persisted UI theme preference
type APIThemeResponse struct {
	Theme string `json:"theme"`
}

// APIOnboardingResponse carries the onboarding completion flag
type APIOnboardingResponse struct {
	Complete bool `json:"complete"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIThemeResponse{Theme: s.tracker.Theme().String()})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req APIThemeResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	theme, err := enums.ParseTheme(req.Theme)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.tracker.SetTheme(theme); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, APIThemeResponse{Theme: theme.String()})
}

func (s *Server) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIOnboardingResponse{Complete: s.tracker.OnboardingComplete()})
}

func (s *Server) handleSetOnboarding(w http.ResponseWriter, r *http.Request) {
	var req APIOnboardingResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tracker.SetOnboardingComplete(req.Complete); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, APIOnboardingResponse{Complete: req.Complete})
}

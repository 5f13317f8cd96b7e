// internal/server/scenarios.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "propsim/internal/common/errors"
	"propsim/internal/models"
)

type scenarioRequest struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

func (s *Server) createScenario(w http.ResponseWriter, r *http.Request) {
	propertyID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req scenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, badBody(err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.fail(w, r, apperrors.NewValidationFailedError("name is required",
			map[string]interface{}{"name": "required"}))
		return
	}

	id, err := s.svc.CreateScenario(r.Context(), propertyID, req.Name, req.Params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_scenario", "scenario", id, err))
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_scenario", "scenario", id, err))
		return
	}
	if sc == nil {
		s.fail(w, r, notFound("scenario", id))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	propertyID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.repo.GetProperty(r.Context(), propertyID)
	if err != nil {
		s.fail(w, r, storageErr("get_property", "property", propertyID, err))
		return
	}
	if p == nil {
		s.fail(w, r, notFound("property", propertyID))
		return
	}

	list, err := s.repo.ListScenarios(r.Context(), propertyID)
	if err != nil {
		s.fail(w, r, storageErr("list_scenarios", "property", propertyID, err))
		return
	}
	if list == nil {
		list = []*models.Scenario{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateScenario(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req scenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, badBody(err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.fail(w, r, apperrors.NewValidationFailedError("name is required",
			map[string]interface{}{"name": "required"}))
		return
	}

	if err := s.svc.UpdateScenario(r.Context(), id, req.Name, req.Params); err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_scenario", "scenario", id, err))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// deleteScenario is idempotent like deleteProperty. Run history for the
// scenario goes with it.
func (s *Server) deleteScenario(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.repo.DeleteScenario(r.Context(), id); err != nil {
		s.fail(w, r, storageErr("delete_scenario", "scenario", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// duplicateScenario copies a scenario under a new name. The body is
// optional; without one the copy is named "<original> (copy)".
func (s *Server) duplicateScenario(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, badBody(err))
		return
	}

	copyID, err := s.repo.DuplicateScenario(r.Context(), id, req.Name)
	if err != nil {
		s.fail(w, r, storageErr("duplicate_scenario", "scenario", id, err))
		return
	}
	sc, err := s.repo.GetScenario(r.Context(), copyID)
	if err != nil {
		s.fail(w, r, storageErr("get_scenario", "scenario", copyID, err))
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

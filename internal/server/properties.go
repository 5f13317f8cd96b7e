// internal/server/properties.go
package server

import (
	"net/http"
	"strings"

	apperrors "propsim/internal/common/errors"
	"propsim/internal/models"
)

type propertyRequest struct {
	Address   string   `json:"address"`
	MLSNumber string   `json:"mls_number"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Beds      *int     `json:"beds"`
	Baths     *int     `json:"baths"`
	Sqft      *int     `json:"sqft"`
	YearBuilt *int     `json:"year_built"`
	Notes     string   `json:"notes"`
}

func (req propertyRequest) toModel(id int64) *models.Property {
	return &models.Property{
		ID:        id,
		Address:   strings.TrimSpace(req.Address),
		MLSNumber: req.MLSNumber,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Beds:      req.Beds,
		Baths:     req.Baths,
		Sqft:      req.Sqft,
		YearBuilt: req.YearBuilt,
		Notes:     req.Notes,
	}
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, badBody(err))
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		s.fail(w, r, apperrors.NewValidationFailedError("address is required",
			map[string]interface{}{"address": "required"}))
		return
	}

	id, err := s.repo.UpsertProperty(r.Context(), req.toModel(0))
	if err != nil {
		s.fail(w, r, storageErr("upsert_property", "property", 0, err))
		return
	}
	p, err := s.repo.GetProperty(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_property", "property", id, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.repo.GetProperty(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_property", "property", id, err))
		return
	}
	if p == nil {
		s.fail(w, r, notFound("property", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListProperties(r.Context())
	if err != nil {
		s.fail(w, r, storageErr("list_properties", "property", 0, err))
		return
	}
	if list == nil {
		list = []*models.Property{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, badBody(err))
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		s.fail(w, r, apperrors.NewValidationFailedError("address is required",
			map[string]interface{}{"address": "required"}))
		return
	}

	if _, err := s.repo.UpsertProperty(r.Context(), req.toModel(id)); err != nil {
		s.fail(w, r, storageErr("upsert_property", "property", id, err))
		return
	}
	p, err := s.repo.GetProperty(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_property", "property", id, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// deleteProperty is idempotent; deleting an absent property still returns
// 204. Scenarios and runs underneath it go with it.
func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.repo.DeleteProperty(r.Context(), id); err != nil {
		s.fail(w, r, storageErr("delete_property", "property", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

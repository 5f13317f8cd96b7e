// internal/server/simulate.go
package server

import (
	"encoding/json"
	"io"
	"net/http"

	"propsim/internal/autosim"
	apperrors "propsim/internal/common/errors"
)

// simulate runs an ad-hoc params document and returns the month series
// with its summary. Nothing is persisted.
func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, r, apperrors.NewValidationFailedError("reading request body: "+err.Error(), nil))
		return
	}

	result, err := s.svc.SimulateParams(r.Context(), doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// sweepRequest wraps a params document with an optional sampling range.
// Absent range fields fall back to the configured defaults.
type sweepRequest struct {
	Params       json.RawMessage `json:"params"`
	LowerPercent *float64        `json:"lower_percent"`
	UpperPercent *float64        `json:"upper_percent"`
	Samples      *int            `json:"samples"`
}

// sweep evaluates the down-payment grid for an ad-hoc params document.
// Nothing is persisted.
func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, badBody(err))
		return
	}

	opts := autosim.Options{
		LowerPercent: s.sweepDefaults.LowerPercent,
		UpperPercent: s.sweepDefaults.UpperPercent,
		Samples:      s.sweepDefaults.Samples,
	}
	if req.LowerPercent != nil {
		opts.LowerPercent = *req.LowerPercent
	}
	if req.UpperPercent != nil {
		opts.UpperPercent = *req.UpperPercent
	}
	if req.Samples != nil {
		opts.Samples = *req.Samples
	}

	result, err := s.svc.SweepParams(r.Context(), req.Params, opts, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

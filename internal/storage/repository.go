// internal/storage/repository.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"propsim/internal/common/metrics"
	"propsim/internal/models"
)

// ErrNotFound reports a write that targeted a row that does not exist.
// Reads signal absence with a nil record instead of an error.
var ErrNotFound = errors.New("NOT_FOUND")

// Repository is the persistence facade for properties, scenarios, and runs.
// The simulation engine never touches it; the service and command layers do.
// Deletes cascade: a property takes its scenarios, a scenario takes its runs.
type Repository interface {
	// Properties
	UpsertProperty(ctx context.Context, p *models.Property) (int64, error)
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	ListProperties(ctx context.Context) ([]*models.Property, error)
	DeleteProperty(ctx context.Context, id int64) error

	// Scenarios
	CreateScenario(ctx context.Context, propertyID int64, name string, params json.RawMessage) (int64, error)
	GetScenario(ctx context.Context, id int64) (*models.Scenario, error)
	ListScenarios(ctx context.Context, propertyID int64) ([]*models.Scenario, error)
	UpdateScenario(ctx context.Context, id int64, name string, params json.RawMessage) error
	DeleteScenario(ctx context.Context, id int64) error
	DuplicateScenario(ctx context.Context, id int64, newName string) (int64, error)

	// Runs
	AddRun(ctx context.Context, run *models.Run) (int64, error)
	GetRun(ctx context.Context, id int64) (*models.Run, error)
	ListRuns(ctx context.Context, scenarioID int64) ([]*models.Run, error)
	SetRunArtifact(ctx context.Context, runID int64, csvPath string) error

	Ping(ctx context.Context) error
	Close() error
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// observe records the duration of one repository operation.
func observe(op string, start time.Time) {
	metrics.StorageOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// emptyToBraces keeps params_json a valid JSON document even when the
// caller passed nothing.
func emptyToBraces(params json.RawMessage) string {
	if len(params) == 0 {
		return "{}"
	}
	return string(params)
}

// copyName picks the name for a duplicated scenario.
func copyName(requested, original string) string {
	if requested != "" {
		return requested
	}
	return original + " (copy)"
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

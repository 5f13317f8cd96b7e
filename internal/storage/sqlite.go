// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propsim/internal/models"
)

// SQLiteRepository implements Repository on the embedded SQLite backend.
// The handle comes from database.NewSQLite, which sets the foreign-key
// pragma and the single-connection limit.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite wraps an open SQLite handle and bootstraps the schema.
func NewSQLite(db *sql.DB) (*SQLiteRepository, error) {
	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

// migrate applies the idempotent DDL and pins the schema version.
func (r *SQLiteRepository) migrate() error {
	if _, err := r.db.Exec(schemaSQLite); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := r.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unsupported schema version %d (this build expects %d)", v, schemaVersion)
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// --- properties ---

func (r *SQLiteRepository) UpsertProperty(ctx context.Context, p *models.Property) (int64, error) {
	defer observe("upsert_property", time.Now())
	now := nowUTC()

	if p.ID != 0 {
		res, err := r.db.ExecContext(ctx,
			`UPDATE properties
			 SET address=?, mls_number=?, latitude=?, longitude=?, beds=?, baths=?,
			     sqft=?, year_built=?, notes=?, updated_at=?
			 WHERE id=?`,
			p.Address, p.MLSNumber, p.Latitude, p.Longitude, p.Beds, p.Baths,
			p.Sqft, p.YearBuilt, p.Notes, now, p.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("update property: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("update property: %w", err)
		}
		if n == 0 {
			return 0, fmt.Errorf("update property %d: %w", p.ID, ErrNotFound)
		}
		return p.ID, nil
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (address, mls_number, latitude, longitude, beds, baths,
		                         sqft, year_built, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Address, p.MLSNumber, p.Latitude, p.Longitude, p.Beds, p.Baths,
		p.Sqft, p.YearBuilt, p.Notes, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert property: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	defer observe("get_property", time.Now())

	var p models.Property
	var address, mls, notes sql.NullString
	var lat, lon sql.NullFloat64
	var beds, baths, sqft, yearBuilt sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, address, mls_number, latitude, longitude, beds, baths,
		        sqft, year_built, notes, created_at, updated_at
		 FROM properties WHERE id=?`, id,
	).Scan(&p.ID, &address, &mls, &lat, &lon, &beds, &baths,
		&sqft, &yearBuilt, &notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	p.Address = nullStr(address)
	p.MLSNumber = nullStr(mls)
	p.Notes = nullStr(notes)
	p.Latitude = floatPtr(lat)
	p.Longitude = floatPtr(lon)
	p.Beds = intPtr(beds)
	p.Baths = intPtr(baths)
	p.Sqft = intPtr(sqft)
	p.YearBuilt = intPtr(yearBuilt)
	return &p, nil
}

func (r *SQLiteRepository) ListProperties(ctx context.Context) ([]*models.Property, error) {
	defer observe("list_properties", time.Now())

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, address, mls_number, latitude, longitude, beds, baths,
		        sqft, year_built, notes, created_at, updated_at
		 FROM properties
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var list []*models.Property
	for rows.Next() {
		var p models.Property
		var address, mls, notes sql.NullString
		var lat, lon sql.NullFloat64
		var beds, baths, sqft, yearBuilt sql.NullInt64
		if err := rows.Scan(&p.ID, &address, &mls, &lat, &lon, &beds, &baths,
			&sqft, &yearBuilt, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.Address = nullStr(address)
		p.MLSNumber = nullStr(mls)
		p.Notes = nullStr(notes)
		p.Latitude = floatPtr(lat)
		p.Longitude = floatPtr(lon)
		p.Beds = intPtr(beds)
		p.Baths = intPtr(baths)
		p.Sqft = intPtr(sqft)
		p.YearBuilt = intPtr(yearBuilt)
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return list, nil
}

func (r *SQLiteRepository) DeleteProperty(ctx context.Context, id int64) error {
	defer observe("delete_property", time.Now())

	// Cascades to scenarios and runs via foreign keys
	if _, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id=?", id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

// --- scenarios ---

func (r *SQLiteRepository) CreateScenario(ctx context.Context, propertyID int64, name string, params json.RawMessage) (int64, error) {
	defer observe("create_scenario", time.Now())

	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM properties WHERE id=?", propertyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("create scenario: property %d: %w", propertyID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("create scenario: %w", err)
	}

	now := nowUTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scenarios (property_id, name, params_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		propertyID, name, emptyToBraces(params), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scenario: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetScenario(ctx context.Context, id int64) (*models.Scenario, error) {
	defer observe("get_scenario", time.Now())

	var s models.Scenario
	var paramsJSON string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_id, name, params_json, created_at, updated_at
		 FROM scenarios WHERE id=?`, id,
	).Scan(&s.ID, &s.PropertyID, &s.Name, &paramsJSON, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	s.Params = json.RawMessage(paramsJSON)
	return &s, nil
}

func (r *SQLiteRepository) ListScenarios(ctx context.Context, propertyID int64) ([]*models.Scenario, error) {
	defer observe("list_scenarios", time.Now())

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_id, name, params_json, created_at, updated_at
		 FROM scenarios
		 WHERE property_id=?
		 ORDER BY updated_at DESC, created_at DESC, id DESC`, propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var list []*models.Scenario
	for rows.Next() {
		var s models.Scenario
		var paramsJSON string
		if err := rows.Scan(&s.ID, &s.PropertyID, &s.Name, &paramsJSON,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		s.Params = json.RawMessage(paramsJSON)
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return list, nil
}

func (r *SQLiteRepository) UpdateScenario(ctx context.Context, id int64, name string, params json.RawMessage) error {
	defer observe("update_scenario", time.Now())

	res, err := r.db.ExecContext(ctx,
		"UPDATE scenarios SET name=?, params_json=?, updated_at=? WHERE id=?",
		name, emptyToBraces(params), nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update scenario %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteScenario(ctx context.Context, id int64) error {
	defer observe("delete_scenario", time.Now())

	if _, err := r.db.ExecContext(ctx, "DELETE FROM scenarios WHERE id=?", id); err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DuplicateScenario(ctx context.Context, id int64, newName string) (int64, error) {
	defer observe("duplicate_scenario", time.Now())

	var propertyID int64
	var name, paramsJSON string
	err := r.db.QueryRowContext(ctx,
		"SELECT property_id, name, params_json FROM scenarios WHERE id=?", id,
	).Scan(&propertyID, &name, &paramsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("duplicate scenario %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("duplicate scenario: %w", err)
	}

	now := nowUTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scenarios (property_id, name, params_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		propertyID, copyName(newName, name), paramsJSON, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scenario copy: %w", err)
	}
	copyID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return copyID, nil
}

// --- runs ---

func (r *SQLiteRepository) AddRun(ctx context.Context, run *models.Run) (int64, error) {
	defer observe("add_run", time.Now())

	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM scenarios WHERE id=?", run.ScenarioID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("add run: scenario %d: %w", run.ScenarioID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("add run: %w", err)
	}

	runAt := run.RunAt
	if runAt == "" {
		runAt = nowUTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		                   cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		                   payback_month, csv_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ScenarioID, runAt, run.MonthlyMortgage, run.InitialCoC, run.EndingMonthlyCF,
		run.CumulativeCF, run.TerminalEquity, run.TotalInvestedEst, run.TotalReturnEst,
		run.PaybackMonth, run.CSVPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id int64) (*models.Run, error) {
	defer observe("get_run", time.Now())

	var run models.Run
	var payback sql.NullInt64
	var csvPath sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		        cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		        payback_month, csv_path
		 FROM runs WHERE id=?`, id,
	).Scan(&run.ID, &run.ScenarioID, &run.RunAt, &run.MonthlyMortgage,
		&run.InitialCoC, &run.EndingMonthlyCF, &run.CumulativeCF, &run.TerminalEquity,
		&run.TotalInvestedEst, &run.TotalReturnEst, &payback, &csvPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.PaybackMonth = intPtr(payback)
	run.CSVPath = strPtr(csvPath)
	return &run, nil
}

func (r *SQLiteRepository) ListRuns(ctx context.Context, scenarioID int64) ([]*models.Run, error) {
	defer observe("list_runs", time.Now())

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		        cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		        payback_month, csv_path
		 FROM runs
		 WHERE scenario_id=?
		 ORDER BY run_at DESC, id DESC`, scenarioID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var list []*models.Run
	for rows.Next() {
		var run models.Run
		var payback sql.NullInt64
		var csvPath sql.NullString
		if err := rows.Scan(&run.ID, &run.ScenarioID, &run.RunAt, &run.MonthlyMortgage,
			&run.InitialCoC, &run.EndingMonthlyCF, &run.CumulativeCF, &run.TerminalEquity,
			&run.TotalInvestedEst, &run.TotalReturnEst, &payback, &csvPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.PaybackMonth = intPtr(payback)
		run.CSVPath = strPtr(csvPath)
		list = append(list, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return list, nil
}

func (r *SQLiteRepository) SetRunArtifact(ctx context.Context, runID int64, csvPath string) error {
	defer observe("set_run_artifact", time.Now())

	res, err := r.db.ExecContext(ctx, "UPDATE runs SET csv_path=? WHERE id=?", csvPath, runID)
	if err != nil {
		return fmt.Errorf("set run artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set run artifact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set run artifact %d: %w", runID, ErrNotFound)
	}
	return nil
}

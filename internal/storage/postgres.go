// internal/storage/postgres.go
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

// PostgresRepository implements Repository on PostgreSQL. Same contract as
// the SQLite backend over $n-placeholder SQL; inserts return ids via
// RETURNING because lib/pq has no LastInsertId.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgres wraps an open PostgreSQL handle and bootstraps the schema.
func NewPostgres(db *sql.DB) (*PostgresRepository, error) {
	r := &PostgresRepository{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) migrate() error {
	if _, err := r.db.Exec(schemaPostgres); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	if err := r.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unsupported schema version %d (this build expects %d)", v, schemaVersion)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// --- properties ---

func (r *PostgresRepository) UpsertProperty(ctx context.Context, p *models.Property) (int64, error) {
	defer observe("upsert_property", time.Now())
	now := nowUTC()

	if p.ID != 0 {
		res, err := r.db.ExecContext(ctx,
			`UPDATE properties
			 SET address=$1, mls_number=$2, latitude=$3, longitude=$4, beds=$5, baths=$6,
			     sqft=$7, year_built=$8, notes=$9, updated_at=$10
			 WHERE id=$11`,
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

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO properties (address, mls_number, latitude, longitude, beds, baths,
		                         sqft, year_built, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		p.Address, p.MLSNumber, p.Latitude, p.Longitude, p.Beds, p.Baths,
		p.Sqft, p.YearBuilt, p.Notes, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert property: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	defer observe("get_property", time.Now())

	var p models.Property
	var address, mls, notes sql.NullString
	var lat, lon sql.NullFloat64
	var beds, baths, sqft, yearBuilt sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, address, mls_number, latitude, longitude, beds, baths,
		        sqft, year_built, notes, created_at, updated_at
		 FROM properties WHERE id=$1`, id,
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

func (r *PostgresRepository) ListProperties(ctx context.Context) ([]*models.Property, error) {
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

func (r *PostgresRepository) DeleteProperty(ctx context.Context, id int64) error {
	defer observe("delete_property", time.Now())

	if _, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id=$1", id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

// --- scenarios ---

func (r *PostgresRepository) CreateScenario(ctx context.Context, propertyID int64, name string, params json.RawMessage) (int64, error) {
	defer observe("create_scenario", time.Now())

	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM properties WHERE id=$1", propertyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("create scenario: property %d: %w", propertyID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("create scenario: %w", err)
	}

	now := nowUTC()
	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO scenarios (property_id, name, params_json, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		propertyID, name, emptyToBraces(params), now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert scenario: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetScenario(ctx context.Context, id int64) (*models.Scenario, error) {
	defer observe("get_scenario", time.Now())

	var s models.Scenario
	var paramsJSON string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_id, name, params_json, created_at, updated_at
		 FROM scenarios WHERE id=$1`, id,
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

func (r *PostgresRepository) ListScenarios(ctx context.Context, propertyID int64) ([]*models.Scenario, error) {
	defer observe("list_scenarios", time.Now())

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_id, name, params_json, created_at, updated_at
		 FROM scenarios
		 WHERE property_id=$1
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

func (r *PostgresRepository) UpdateScenario(ctx context.Context, id int64, name string, params json.RawMessage) error {
	defer observe("update_scenario", time.Now())

	res, err := r.db.ExecContext(ctx,
		"UPDATE scenarios SET name=$1, params_json=$2, updated_at=$3 WHERE id=$4",
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

func (r *PostgresRepository) DeleteScenario(ctx context.Context, id int64) error {
	defer observe("delete_scenario", time.Now())

	if _, err := r.db.ExecContext(ctx, "DELETE FROM scenarios WHERE id=$1", id); err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DuplicateScenario(ctx context.Context, id int64, newName string) (int64, error) {
	defer observe("duplicate_scenario", time.Now())

	var propertyID int64
	var name, paramsJSON string
	err := r.db.QueryRowContext(ctx,
		"SELECT property_id, name, params_json FROM scenarios WHERE id=$1", id,
	).Scan(&propertyID, &name, &paramsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("duplicate scenario %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("duplicate scenario: %w", err)
	}

	now := nowUTC()
	var copyID int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO scenarios (property_id, name, params_json, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		propertyID, copyName(newName, name), paramsJSON, now, now,
	).Scan(&copyID)
	if err != nil {
		return 0, fmt.Errorf("insert scenario copy: %w", err)
	}
	return copyID, nil
}

// --- runs ---

func (r *PostgresRepository) AddRun(ctx context.Context, run *models.Run) (int64, error) {
	defer observe("add_run", time.Now())

	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM scenarios WHERE id=$1", run.ScenarioID).Scan(&one)
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
	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO runs (scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		                   cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		                   payback_month, csv_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		run.ScenarioID, runAt, run.MonthlyMortgage, run.InitialCoC, run.EndingMonthlyCF,
		run.CumulativeCF, run.TerminalEquity, run.TotalInvestedEst, run.TotalReturnEst,
		run.PaybackMonth, run.CSVPath,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetRun(ctx context.Context, id int64) (*models.Run, error) {
	defer observe("get_run", time.Now())

	var run models.Run
	var payback sql.NullInt64
	var csvPath sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		        cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		        payback_month, csv_path
		 FROM runs WHERE id=$1`, id,
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

func (r *PostgresRepository) ListRuns(ctx context.Context, scenarioID int64) ([]*models.Run, error) {
	defer observe("list_runs", time.Now())

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scenario_id, run_at, monthly_mortgage, initial_coc, ending_monthly_cf,
		        cumulative_cf, terminal_equity, total_invested_est, total_return_est,
		        payback_month, csv_path
		 FROM runs
		 WHERE scenario_id=$1
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

func (r *PostgresRepository) SetRunArtifact(ctx context.Context, runID int64, csvPath string) error {
	defer observe("set_run_artifact", time.Now())

	res, err := r.db.ExecContext(ctx, "UPDATE runs SET csv_path=$1 WHERE id=$2", csvPath, runID)
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

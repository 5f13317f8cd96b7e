// internal/storage/schema.go
package storage

// schemaVersion is the target schema version for this build.
const schemaVersion = 1

// schemaSQLite is the full DDL for a fresh SQLite database.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS properties (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	address     TEXT,
	mls_number  TEXT,
	latitude    REAL,
	longitude   REAL,
	beds        INTEGER,
	baths       INTEGER,
	sqft        INTEGER,
	year_built  INTEGER,
	notes       TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scenarios (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	params_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario_id        INTEGER NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	run_at             TEXT NOT NULL,
	monthly_mortgage   REAL NOT NULL,
	initial_coc        REAL NOT NULL,
	ending_monthly_cf  REAL NOT NULL,
	cumulative_cf      REAL NOT NULL,
	terminal_equity    REAL NOT NULL,
	total_invested_est REAL NOT NULL,
	total_return_est   REAL NOT NULL,
	payback_month      INTEGER,
	csv_path           TEXT
);

CREATE INDEX IF NOT EXISTS idx_scenarios_property ON scenarios(property_id);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario_id);
`

// schemaPostgres is the same model for PostgreSQL. Timestamps stay TEXT
// (RFC 3339 UTC) so both backends scan into the same record types.
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS properties (
	id          BIGSERIAL PRIMARY KEY,
	address     TEXT,
	mls_number  TEXT,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	beds        INTEGER,
	baths       INTEGER,
	sqft        INTEGER,
	year_built  INTEGER,
	notes       TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scenarios (
	id          BIGSERIAL PRIMARY KEY,
	property_id BIGINT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	params_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id                 BIGSERIAL PRIMARY KEY,
	scenario_id        BIGINT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	run_at             TEXT NOT NULL,
	monthly_mortgage   DOUBLE PRECISION NOT NULL,
	initial_coc        DOUBLE PRECISION NOT NULL,
	ending_monthly_cf  DOUBLE PRECISION NOT NULL,
	cumulative_cf      DOUBLE PRECISION NOT NULL,
	terminal_equity    DOUBLE PRECISION NOT NULL,
	total_invested_est DOUBLE PRECISION NOT NULL,
	total_return_est   DOUBLE PRECISION NOT NULL,
	payback_month      INTEGER,
	csv_path           TEXT
);

CREATE INDEX IF NOT EXISTS idx_scenarios_property ON scenarios(property_id);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario_id);

INSERT INTO schema_version (version)
SELECT 1 WHERE NOT EXISTS (SELECT 1 FROM schema_version);
`

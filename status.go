package govwatch

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// StatusStore keeps operational metadata about watched sites and completed
// runs in SQLite. The diff markers themselves live in the JSON state file;
// this store only tracks health: when a site was last checked, how many
// times in a row it failed, and whether it has been disabled.
type StatusStore struct {
	db *sql.DB
}

// SiteStatus is the health record for one site.
type SiteStatus struct {
	SiteID        string     `json:"site_id"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	ErrorCount    int        `json:"error_count"`
	LastError     *string    `json:"last_error,omitempty"`
	DisabledAt    *time.Time `json:"disabled_at,omitempty"`
}

// Run is the summary record of one completed watcher pass.
type Run struct {
	RunID        uuid.UUID `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	SitesChecked int       `json:"sites_checked"`
	SitesFailed  int       `json:"sites_failed"`
	NewItems     int       `json:"new_items"`
}

// NewStatusStore opens (creating if needed) a status store at the given
// database path.
func NewStatusStore(dbPath string) (*StatusStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &StatusStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the tables if they don't exist.
func (s *StatusStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS site_status (
		site_id TEXT PRIMARY KEY,
		last_checked_at TEXT,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		disabled_at TEXT
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		sites_checked INTEGER NOT NULL,
		sites_failed INTEGER NOT NULL,
		new_items INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *StatusStore) Close() error {
	return s.db.Close()
}

// GetStatus returns the health record for a site. A site never recorded
// before gets a zero-value record, not an error.
func (s *StatusStore) GetStatus(siteID string) (*SiteStatus, error) {
	query := `
		SELECT site_id, last_checked_at, error_count, last_error, disabled_at
		FROM site_status WHERE site_id = ?
	`

	row := s.db.QueryRow(query, siteID)
	status, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return &SiteStatus{SiteID: siteID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site status: %w", err)
	}
	return status, nil
}

// ListStatuses returns the health records for every site ever recorded.
func (s *StatusStore) ListStatuses() ([]SiteStatus, error) {
	query := `
		SELECT site_id, last_checked_at, error_count, last_error, disabled_at
		FROM site_status ORDER BY site_id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query site statuses: %w", err)
	}
	defer rows.Close()

	var statuses []SiteStatus
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site status: %w", err)
		}
		statuses = append(statuses, *status)
	}
	return statuses, rows.Err()
}

// RecordSuccess marks a successful check: the error counter resets and any
// stored error clears. A disabled site stays disabled; only an explicit
// Enable clears that.
func (s *StatusStore) RecordSuccess(siteID string, at time.Time) error {
	query := `
		INSERT INTO site_status (site_id, last_checked_at, error_count, last_error)
		VALUES (?, ?, 0, NULL)
		ON CONFLICT(site_id) DO UPDATE SET
			last_checked_at = excluded.last_checked_at,
			error_count = 0,
			last_error = NULL
	`

	if _, err := s.db.Exec(query, siteID, formatTime(&at)); err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return nil
}

// RecordFailure increments the site's consecutive error counter and stores
// the error. Once the counter reaches disableThreshold the site is
// disabled; the return value reports whether this call tripped it.
// A disableThreshold of zero or less never disables.
func (s *StatusStore) RecordFailure(siteID string, at time.Time, failure error, disableThreshold int) (bool, error) {
	status, err := s.GetStatus(siteID)
	if err != nil {
		return false, err
	}

	newCount := status.ErrorCount + 1
	errorMsg := failure.Error()

	disabled := false
	var disabledAt *time.Time
	if status.DisabledAt != nil {
		disabledAt = status.DisabledAt
	} else if disableThreshold > 0 && newCount >= disableThreshold {
		disabled = true
		disabledAt = &at
	}

	query := `
		INSERT INTO site_status (site_id, last_checked_at, error_count, last_error, disabled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			last_checked_at = excluded.last_checked_at,
			error_count = excluded.error_count,
			last_error = excluded.last_error,
			disabled_at = excluded.disabled_at
	`

	if _, err := s.db.Exec(query, siteID, formatTime(&at), newCount, errorMsg, formatTime(disabledAt)); err != nil {
		return false, fmt.Errorf("failed to record failure: %w", err)
	}
	return disabled, nil
}

// Enable re-enables a site and resets its error counter.
func (s *StatusStore) Enable(siteID string) error {
	query := `
		INSERT INTO site_status (site_id, error_count, disabled_at)
		VALUES (?, 0, NULL)
		ON CONFLICT(site_id) DO UPDATE SET
			error_count = 0,
			last_error = NULL,
			disabled_at = NULL
	`

	if _, err := s.db.Exec(query, siteID); err != nil {
		return fmt.Errorf("failed to enable site: %w", err)
	}
	return nil
}

// Disable manually disables a site so the watcher skips it.
func (s *StatusStore) Disable(siteID string, at time.Time) error {
	query := `
		INSERT INTO site_status (site_id, disabled_at)
		VALUES (?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			disabled_at = excluded.disabled_at
	`

	if _, err := s.db.Exec(query, siteID, formatTime(&at)); err != nil {
		return fmt.Errorf("failed to disable site: %w", err)
	}
	return nil
}

// RecordRun stores the summary of a completed watcher pass.
func (s *StatusStore) RecordRun(run *Run) error {
	query := `
		INSERT INTO runs (run_id, started_at, finished_at, sites_checked, sites_failed, new_items)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		formatTime(&run.StartedAt),
		formatTime(&run.FinishedAt),
		run.SitesChecked,
		run.SitesFailed,
		run.NewItems,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *StatusStore) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, started_at, finished_at, sites_checked, sites_failed, new_items
		FROM runs ORDER BY started_at DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var runID, startedAt, finishedAt string
		if err := rows.Scan(&runID, &startedAt, &finishedAt,
			&run.SitesChecked, &run.SitesFailed, &run.NewItems); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("invalid run_id %q: %w", runID, err)
		}
		run.RunID = id
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseTime(finishedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanner lets scanStatus work with both QueryRow and Query results.
type scanner interface {
	Scan(dest ...any) error
}

func scanStatus(row scanner) (*SiteStatus, error) {
	var status SiteStatus
	var lastCheckedAt, lastError, disabledAt sql.NullString

	if err := row.Scan(&status.SiteID, &lastCheckedAt, &status.ErrorCount,
		&lastError, &disabledAt); err != nil {
		return nil, err
	}

	if lastCheckedAt.Valid {
		t := parseTime(lastCheckedAt.String)
		status.LastCheckedAt = &t
	}
	if lastError.Valid {
		status.LastError = &lastError.String
	}
	if disabledAt.Valid {
		t := parseTime(disabledAt.String)
		status.DisabledAt = &t
	}
	return &status, nil
}

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

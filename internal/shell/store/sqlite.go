package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/slipway-sh/slipway/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction. The Store passed to fn shares the
// transaction; any error rolls everything back.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", rbErr.Error(), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}
	return nil
}

// =============================================================================
// Row Types and Conversions
// =============================================================================

const timeFormat = time.RFC3339Nano

type workloadRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Version     string `db:"version"`
	Manifest    string `db:"manifest"`
	ImageTag    string `db:"image_tag"`
	Published   bool   `db:"published"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func workloadToRow(w *domain.Workload) workloadRow {
	return workloadRow{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		Description: w.Description,
		Version:     w.Version,
		Manifest:    w.Manifest,
		ImageTag:    w.ImageTag,
		Published:   w.Published,
		CreatedAt:   w.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   w.UpdatedAt.UTC().Format(timeFormat),
	}
}

func rowToWorkload(r workloadRow) (*domain.Workload, error) {
	createdAt, err := time.Parse(timeFormat, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrInvalidData, err)
	}
	updatedAt, err := time.Parse(timeFormat, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", ErrInvalidData, err)
	}
	return &domain.Workload{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Version:     r.Version,
		Manifest:    r.Manifest,
		ImageTag:    r.ImageTag,
		Published:   r.Published,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

type launchRow struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	WorkloadID      string  `db:"workload_id"`
	WorkloadVersion string  `db:"workload_version"`
	Status          string  `db:"status"`
	ContainerID     string  `db:"container_id"`
	ImageTag        string  `db:"image_tag"`
	HostPort        int     `db:"host_port"`
	ContainerPort   int     `db:"container_port"`
	Workers         int     `db:"workers"`
	Env             *string `db:"env"`
	ErrorMessage    string  `db:"error_message"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
	StartedAt       *string `db:"started_at"`
	StoppedAt       *string `db:"stopped_at"`
}

func launchToRow(l *domain.Launch) (launchRow, error) {
	row := launchRow{
		ID:              l.ID,
		Name:            l.Name,
		WorkloadID:      l.WorkloadID,
		WorkloadVersion: l.WorkloadVersion,
		Status:          string(l.Status),
		ContainerID:     l.ContainerID,
		ImageTag:        l.ImageTag,
		HostPort:        l.HostPort,
		ContainerPort:   l.ContainerPort,
		Workers:         l.Workers,
		ErrorMessage:    l.ErrorMessage,
		CreatedAt:       l.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:       l.UpdatedAt.UTC().Format(timeFormat),
	}
	if len(l.Env) > 0 {
		raw, err := json.Marshal(l.Env)
		if err != nil {
			return row, fmt.Errorf("%w: env: %v", ErrInvalidData, err)
		}
		s := string(raw)
		row.Env = &s
	}
	if l.StartedAt != nil {
		s := l.StartedAt.UTC().Format(timeFormat)
		row.StartedAt = &s
	}
	if l.StoppedAt != nil {
		s := l.StoppedAt.UTC().Format(timeFormat)
		row.StoppedAt = &s
	}
	return row, nil
}

func rowToLaunch(r launchRow) (*domain.Launch, error) {
	createdAt, err := time.Parse(timeFormat, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrInvalidData, err)
	}
	updatedAt, err := time.Parse(timeFormat, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", ErrInvalidData, err)
	}

	l := &domain.Launch{
		ID:              r.ID,
		Name:            r.Name,
		WorkloadID:      r.WorkloadID,
		WorkloadVersion: r.WorkloadVersion,
		Status:          domain.LaunchStatus(r.Status),
		ContainerID:     r.ContainerID,
		ImageTag:        r.ImageTag,
		HostPort:        r.HostPort,
		ContainerPort:   r.ContainerPort,
		Workers:         r.Workers,
		ErrorMessage:    r.ErrorMessage,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}

	if r.Env != nil && *r.Env != "" {
		if err := json.Unmarshal([]byte(*r.Env), &l.Env); err != nil {
			return nil, fmt.Errorf("%w: env: %v", ErrInvalidData, err)
		}
	}
	if r.StartedAt != nil {
		t, err := time.Parse(timeFormat, *r.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: started_at: %v", ErrInvalidData, err)
		}
		l.StartedAt = &t
	}
	if r.StoppedAt != nil {
		t, err := time.Parse(timeFormat, *r.StoppedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: stopped_at: %v", ErrInvalidData, err)
		}
		l.StoppedAt = &t
	}
	return l, nil
}

type eventRow struct {
	ID        string `db:"id"`
	LaunchID  string `db:"launch_id"`
	Type      string `db:"type"`
	Message   string `db:"message"`
	ExitCode  *int   `db:"exit_code"`
	CreatedAt string `db:"created_at"`
}

type tokenRow struct {
	Name       string `db:"name"`
	SecretHash string `db:"secret_hash"`
	CreatedAt  string `db:"created_at"`
}

// mapConstraintError converts sqlite constraint failures to typed errors.
func mapConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, ".slug"):
		return ErrDuplicateSlug
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicateID
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrForeignKey
	}
	return err
}

// =============================================================================
// Workload Operations
// =============================================================================

func createWorkload(ctx context.Context, e executor, w *domain.Workload) error {
	row := workloadToRow(w)
	_, err := e.NamedExecContext(ctx, `
		INSERT INTO workloads (id, name, slug, description, version, manifest, image_tag, published, created_at, updated_at)
		VALUES (:id, :name, :slug, :description, :version, :manifest, :image_tag, :published, :created_at, :updated_at)`,
		row)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("CreateWorkload", "workload", w.ID, err.Error(), mapped)
	}
	return nil
}

func getWorkload(ctx context.Context, e executor, id string) (*domain.Workload, error) {
	var row workloadRow
	err := e.GetContext(ctx, &row, `SELECT * FROM workloads WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetWorkload", "workload", id, "not found", ErrNotFound)
		}
		return nil, NewStoreError("GetWorkload", "workload", id, err.Error(), err)
	}
	w, err := rowToWorkload(row)
	if err != nil {
		return nil, NewStoreError("GetWorkload", "workload", id, err.Error(), ErrInvalidData)
	}
	return w, nil
}

func getWorkloadBySlug(ctx context.Context, e executor, slug string) (*domain.Workload, error) {
	var row workloadRow
	err := e.GetContext(ctx, &row, `SELECT * FROM workloads WHERE slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetWorkloadBySlug", "workload", slug, "not found", ErrNotFound)
		}
		return nil, NewStoreError("GetWorkloadBySlug", "workload", slug, err.Error(), err)
	}
	w, err := rowToWorkload(row)
	if err != nil {
		return nil, NewStoreError("GetWorkloadBySlug", "workload", slug, err.Error(), ErrInvalidData)
	}
	return w, nil
}

func updateWorkload(ctx context.Context, e executor, w *domain.Workload) error {
	row := workloadToRow(w)
	res, err := e.NamedExecContext(ctx, `
		UPDATE workloads
		SET name = :name, slug = :slug, description = :description, version = :version,
		    manifest = :manifest, image_tag = :image_tag, published = :published, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("UpdateWorkload", "workload", w.ID, err.Error(), mapped)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("UpdateWorkload", "workload", w.ID, "not found", ErrNotFound)
	}
	return nil
}

func deleteWorkload(ctx context.Context, e executor, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM workloads WHERE id = ?`, id)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("DeleteWorkload", "workload", id, err.Error(), mapped)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("DeleteWorkload", "workload", id, "not found", ErrNotFound)
	}
	return nil
}

func listWorkloads(ctx context.Context, e executor, opts ListOptions) ([]domain.Workload, error) {
	opts = opts.Normalize()
	var rows []workloadRow
	err := e.SelectContext(ctx, &rows, `
		SELECT * FROM workloads ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListWorkloads", "workload", "", err.Error(), err)
	}

	result := make([]domain.Workload, 0, len(rows))
	for _, row := range rows {
		w, err := rowToWorkload(row)
		if err != nil {
			return nil, NewStoreError("ListWorkloads", "workload", row.ID, err.Error(), ErrInvalidData)
		}
		result = append(result, *w)
	}
	return result, nil
}

// =============================================================================
// Launch Operations
// =============================================================================

func createLaunch(ctx context.Context, e executor, l *domain.Launch) error {
	row, err := launchToRow(l)
	if err != nil {
		return NewStoreError("CreateLaunch", "launch", l.ID, err.Error(), ErrInvalidData)
	}
	_, err = e.NamedExecContext(ctx, `
		INSERT INTO launches (id, name, workload_id, workload_version, status, container_id, image_tag,
		                      host_port, container_port, workers, env, error_message,
		                      created_at, updated_at, started_at, stopped_at)
		VALUES (:id, :name, :workload_id, :workload_version, :status, :container_id, :image_tag,
		        :host_port, :container_port, :workers, :env, :error_message,
		        :created_at, :updated_at, :started_at, :stopped_at)`,
		row)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("CreateLaunch", "launch", l.ID, err.Error(), mapped)
	}
	return nil
}

func getLaunch(ctx context.Context, e executor, id string) (*domain.Launch, error) {
	var row launchRow
	err := e.GetContext(ctx, &row, `SELECT * FROM launches WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetLaunch", "launch", id, "not found", ErrNotFound)
		}
		return nil, NewStoreError("GetLaunch", "launch", id, err.Error(), err)
	}
	l, err := rowToLaunch(row)
	if err != nil {
		return nil, NewStoreError("GetLaunch", "launch", id, err.Error(), ErrInvalidData)
	}
	return l, nil
}

func updateLaunch(ctx context.Context, e executor, l *domain.Launch) error {
	row, err := launchToRow(l)
	if err != nil {
		return NewStoreError("UpdateLaunch", "launch", l.ID, err.Error(), ErrInvalidData)
	}
	res, err := e.NamedExecContext(ctx, `
		UPDATE launches
		SET status = :status, container_id = :container_id, image_tag = :image_tag,
		    host_port = :host_port, workers = :workers, env = :env, error_message = :error_message,
		    updated_at = :updated_at, started_at = :started_at, stopped_at = :stopped_at
		WHERE id = :id`,
		row)
	if err != nil {
		return NewStoreError("UpdateLaunch", "launch", l.ID, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("UpdateLaunch", "launch", l.ID, "not found", ErrNotFound)
	}
	return nil
}

func deleteLaunch(ctx context.Context, e executor, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM launches WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteLaunch", "launch", id, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("DeleteLaunch", "launch", id, "not found", ErrNotFound)
	}
	return nil
}

func listLaunches(ctx context.Context, e executor, query string, args []any) ([]domain.Launch, error) {
	var rows []launchRow
	if err := e.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListLaunches", "launch", "", err.Error(), err)
	}

	result := make([]domain.Launch, 0, len(rows))
	for _, row := range rows {
		l, err := rowToLaunch(row)
		if err != nil {
			return nil, NewStoreError("ListLaunches", "launch", row.ID, err.Error(), ErrInvalidData)
		}
		result = append(result, *l)
	}
	return result, nil
}

func getUsedHostPorts(ctx context.Context, e executor) ([]int, error) {
	var ports []int
	err := e.SelectContext(ctx, &ports, `
		SELECT host_port FROM launches
		WHERE host_port != 0 AND status NOT IN ('deleted', 'failed', 'stopped')`)
	if err != nil {
		return nil, NewStoreError("GetUsedHostPorts", "launch", "", err.Error(), err)
	}
	return ports, nil
}

// =============================================================================
// Launch Event Operations
// =============================================================================

func createLaunchEvent(ctx context.Context, e executor, ev *domain.LaunchEvent) error {
	row := eventRow{
		ID:        ev.ID,
		LaunchID:  ev.LaunchID,
		Type:      string(ev.Type),
		Message:   ev.Message,
		ExitCode:  ev.ExitCode,
		CreatedAt: ev.CreatedAt.UTC().Format(timeFormat),
	}
	_, err := e.NamedExecContext(ctx, `
		INSERT INTO launch_events (id, launch_id, type, message, exit_code, created_at)
		VALUES (:id, :launch_id, :type, :message, :exit_code, :created_at)`,
		row)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("CreateLaunchEvent", "launch_event", ev.ID, err.Error(), mapped)
	}
	return nil
}

func listLaunchEvents(ctx context.Context, e executor, launchID string, limit int) ([]domain.LaunchEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []eventRow
	err := e.SelectContext(ctx, &rows, `
		SELECT * FROM launch_events WHERE launch_id = ?
		ORDER BY created_at DESC LIMIT ?`,
		launchID, limit)
	if err != nil {
		return nil, NewStoreError("ListLaunchEvents", "launch_event", launchID, err.Error(), err)
	}

	result := make([]domain.LaunchEvent, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(timeFormat, row.CreatedAt)
		if err != nil {
			return nil, NewStoreError("ListLaunchEvents", "launch_event", row.ID, err.Error(), ErrInvalidData)
		}
		result = append(result, domain.LaunchEvent{
			ID:        row.ID,
			LaunchID:  row.LaunchID,
			Type:      domain.LaunchEventType(row.Type),
			Message:   row.Message,
			ExitCode:  row.ExitCode,
			CreatedAt: createdAt,
		})
	}
	return result, nil
}

// =============================================================================
// API Token Operations
// =============================================================================

func createAPIToken(ctx context.Context, e executor, t *APIToken) error {
	row := tokenRow{
		Name:       t.Name,
		SecretHash: t.SecretHash,
		CreatedAt:  t.CreatedAt.UTC().Format(timeFormat),
	}
	_, err := e.NamedExecContext(ctx, `
		INSERT INTO api_tokens (name, secret_hash, created_at)
		VALUES (:name, :secret_hash, :created_at)`,
		row)
	if err != nil {
		mapped := mapConstraintError(err)
		return NewStoreError("CreateAPIToken", "api_token", t.Name, err.Error(), mapped)
	}
	return nil
}

func getAPIToken(ctx context.Context, e executor, name string) (*APIToken, error) {
	var row tokenRow
	err := e.GetContext(ctx, &row, `SELECT * FROM api_tokens WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetAPIToken", "api_token", name, "not found", ErrNotFound)
		}
		return nil, NewStoreError("GetAPIToken", "api_token", name, err.Error(), err)
	}
	createdAt, err := time.Parse(timeFormat, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("GetAPIToken", "api_token", name, err.Error(), ErrInvalidData)
	}
	return &APIToken{
		Name:       row.Name,
		SecretHash: row.SecretHash,
		CreatedAt:  createdAt,
	}, nil
}

func deleteAPIToken(ctx context.Context, e executor, name string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM api_tokens WHERE name = ?`, name)
	if err != nil {
		return NewStoreError("DeleteAPIToken", "api_token", name, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("DeleteAPIToken", "api_token", name, "not found", ErrNotFound)
	}
	return nil
}

// =============================================================================
// SQLiteStore Interface Methods
// =============================================================================

func (s *SQLiteStore) CreateWorkload(ctx context.Context, w *domain.Workload) error {
	return createWorkload(ctx, s.db, w)
}

func (s *SQLiteStore) GetWorkload(ctx context.Context, id string) (*domain.Workload, error) {
	return getWorkload(ctx, s.db, id)
}

func (s *SQLiteStore) GetWorkloadBySlug(ctx context.Context, slug string) (*domain.Workload, error) {
	return getWorkloadBySlug(ctx, s.db, slug)
}

func (s *SQLiteStore) UpdateWorkload(ctx context.Context, w *domain.Workload) error {
	return updateWorkload(ctx, s.db, w)
}

func (s *SQLiteStore) DeleteWorkload(ctx context.Context, id string) error {
	return deleteWorkload(ctx, s.db, id)
}

func (s *SQLiteStore) ListWorkloads(ctx context.Context, opts ListOptions) ([]domain.Workload, error) {
	return listWorkloads(ctx, s.db, opts)
}

func (s *SQLiteStore) CreateLaunch(ctx context.Context, l *domain.Launch) error {
	return createLaunch(ctx, s.db, l)
}

func (s *SQLiteStore) GetLaunch(ctx context.Context, id string) (*domain.Launch, error) {
	return getLaunch(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateLaunch(ctx context.Context, l *domain.Launch) error {
	return updateLaunch(ctx, s.db, l)
}

func (s *SQLiteStore) DeleteLaunch(ctx context.Context, id string) error {
	return deleteLaunch(ctx, s.db, id)
}

func (s *SQLiteStore) ListLaunches(ctx context.Context, opts ListOptions) ([]domain.Launch, error) {
	opts = opts.Normalize()
	return listLaunches(ctx, s.db,
		`SELECT * FROM launches ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		[]any{opts.Limit, opts.Offset})
}

func (s *SQLiteStore) ListLaunchesByWorkload(ctx context.Context, workloadID string, opts ListOptions) ([]domain.Launch, error) {
	opts = opts.Normalize()
	return listLaunches(ctx, s.db,
		`SELECT * FROM launches WHERE workload_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		[]any{workloadID, opts.Limit, opts.Offset})
}

func (s *SQLiteStore) ListActiveLaunches(ctx context.Context) ([]domain.Launch, error) {
	return listLaunches(ctx, s.db,
		`SELECT * FROM launches WHERE status IN ('starting', 'running', 'stopping') ORDER BY created_at`,
		nil)
}

func (s *SQLiteStore) GetUsedHostPorts(ctx context.Context) ([]int, error) {
	return getUsedHostPorts(ctx, s.db)
}

func (s *SQLiteStore) CreateLaunchEvent(ctx context.Context, ev *domain.LaunchEvent) error {
	return createLaunchEvent(ctx, s.db, ev)
}

func (s *SQLiteStore) ListLaunchEvents(ctx context.Context, launchID string, limit int) ([]domain.LaunchEvent, error) {
	return listLaunchEvents(ctx, s.db, launchID, limit)
}

func (s *SQLiteStore) CreateAPIToken(ctx context.Context, t *APIToken) error {
	return createAPIToken(ctx, s.db, t)
}

func (s *SQLiteStore) GetAPIToken(ctx context.Context, name string) (*APIToken, error) {
	return getAPIToken(ctx, s.db, name)
}

func (s *SQLiteStore) DeleteAPIToken(ctx context.Context, name string) error {
	return deleteAPIToken(ctx, s.db, name)
}

// =============================================================================
// Transaction Store
// =============================================================================

// txStore implements Store on top of an open transaction.
type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) CreateWorkload(ctx context.Context, w *domain.Workload) error {
	return createWorkload(ctx, s.tx, w)
}

func (s *txStore) GetWorkload(ctx context.Context, id string) (*domain.Workload, error) {
	return getWorkload(ctx, s.tx, id)
}

func (s *txStore) GetWorkloadBySlug(ctx context.Context, slug string) (*domain.Workload, error) {
	return getWorkloadBySlug(ctx, s.tx, slug)
}

func (s *txStore) UpdateWorkload(ctx context.Context, w *domain.Workload) error {
	return updateWorkload(ctx, s.tx, w)
}

func (s *txStore) DeleteWorkload(ctx context.Context, id string) error {
	return deleteWorkload(ctx, s.tx, id)
}

func (s *txStore) ListWorkloads(ctx context.Context, opts ListOptions) ([]domain.Workload, error) {
	return listWorkloads(ctx, s.tx, opts)
}

func (s *txStore) CreateLaunch(ctx context.Context, l *domain.Launch) error {
	return createLaunch(ctx, s.tx, l)
}

func (s *txStore) GetLaunch(ctx context.Context, id string) (*domain.Launch, error) {
	return getLaunch(ctx, s.tx, id)
}

func (s *txStore) UpdateLaunch(ctx context.Context, l *domain.Launch) error {
	return updateLaunch(ctx, s.tx, l)
}

func (s *txStore) DeleteLaunch(ctx context.Context, id string) error {
	return deleteLaunch(ctx, s.tx, id)
}

func (s *txStore) ListLaunches(ctx context.Context, opts ListOptions) ([]domain.Launch, error) {
	opts = opts.Normalize()
	return listLaunches(ctx, s.tx,
		`SELECT * FROM launches ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		[]any{opts.Limit, opts.Offset})
}

func (s *txStore) ListLaunchesByWorkload(ctx context.Context, workloadID string, opts ListOptions) ([]domain.Launch, error) {
	opts = opts.Normalize()
	return listLaunches(ctx, s.tx,
		`SELECT * FROM launches WHERE workload_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		[]any{workloadID, opts.Limit, opts.Offset})
}

func (s *txStore) ListActiveLaunches(ctx context.Context) ([]domain.Launch, error) {
	return listLaunches(ctx, s.tx,
		`SELECT * FROM launches WHERE status IN ('starting', 'running', 'stopping') ORDER BY created_at`,
		nil)
}

func (s *txStore) GetUsedHostPorts(ctx context.Context) ([]int, error) {
	return getUsedHostPorts(ctx, s.tx)
}

func (s *txStore) CreateLaunchEvent(ctx context.Context, ev *domain.LaunchEvent) error {
	return createLaunchEvent(ctx, s.tx, ev)
}

func (s *txStore) ListLaunchEvents(ctx context.Context, launchID string, limit int) ([]domain.LaunchEvent, error) {
	return listLaunchEvents(ctx, s.tx, launchID, limit)
}

func (s *txStore) CreateAPIToken(ctx context.Context, t *APIToken) error {
	return createAPIToken(ctx, s.tx, t)
}

func (s *txStore) GetAPIToken(ctx context.Context, name string) (*APIToken, error) {
	return getAPIToken(ctx, s.tx, name)
}

func (s *txStore) DeleteAPIToken(ctx context.Context, name string) error {
	return deleteAPIToken(ctx, s.tx, name)
}

func (s *txStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already inside a transaction; nested calls share it.
	return fn(s)
}

func (s *txStore) Close() error {
	return nil
}

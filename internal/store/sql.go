package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dreamfactory/dspdocs/internal/domain"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS df_sys_service (
	api_name TEXT PRIMARY KEY,
	type_id INTEGER NOT NULL,
	storage_type_id INTEGER,
	description TEXT NOT NULL DEFAULT ''
)`

// SQLStore is the registry backed by database/sql. SQLite file DSNs are the
// default; postgres:// DSNs use lib/pq against an existing DSP database.
type SQLStore struct {
	db     *sql.DB
	driver string
	closed atomic.Bool
}

var _ ServiceStore = (*SQLStore)(nil)

// Open connects to dsn and ensures the service table exists.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	driver, source, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == driverSQLite {
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func resolveDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case dsn == "":
		return "", "", fmt.Errorf("%w: empty registry dsn", ErrConnection)
	}

	path := strings.TrimPrefix(dsn, "file:")
	if path == ":memory:" {
		return driverSQLite, "file::memory:?cache=shared", nil
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", "", fmt.Errorf("create registry dir: %w", err)
	}
	if strings.Contains(dsn, "?") {
		return driverSQLite, dsn, nil
	}
	return driverSQLite, dsn + "?_journal=WAL&_timeout=5000", nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Driver reports the database/sql driver in use.
func (s *SQLStore) Driver() string { return s.driver }

// arg returns the n-th (1-based) bind placeholder for the active driver.
func (s *SQLStore) arg(n int) string {
	if s.driver == driverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return connErr("ping", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// ListServices returns persisted services ordered by api name.
func (s *SQLStore) ListServices(ctx context.Context) ([]domain.ServiceDescriptor, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT api_name, type_id, storage_type_id, description FROM df_sys_service ORDER BY api_name ASC`)
	if err != nil {
		return nil, connErr("list services", err)
	}
	defer rows.Close()

	var out []domain.ServiceDescriptor
	for rows.Next() {
		var (
			svc     domain.ServiceDescriptor
			typeID  int
			storage sql.NullInt64
			desc    sql.NullString
		)
		if err := rows.Scan(&svc.APIName, &typeID, &storage, &desc); err != nil {
			return nil, connErr("scan service", err)
		}
		svc.TypeID = domain.ServiceType(typeID)
		if storage.Valid {
			v := int(storage.Int64)
			svc.StorageTypeID = &v
		}
		svc.Description = desc.String
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, connErr("list services", err)
	}
	return out, nil
}

// Get returns one persisted service by api name.
func (s *SQLStore) Get(ctx context.Context, apiName string) (*domain.ServiceDescriptor, error) {
	list, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	name := domain.NormalizeAPIName(apiName)
	for i := range list {
		if list[i].APIName == name {
			return &list[i], nil
		}
	}
	return nil, NewNotFoundError("service", name)
}

// Register inserts a new service row.
func (s *SQLStore) Register(ctx context.Context, svc domain.ServiceDescriptor) error {
	if s.closed.Load() {
		return ErrClosed
	}
	svc.APIName = domain.NormalizeAPIName(svc.APIName)
	if svc.APIName == "" || strings.ContainsAny(svc.APIName, "/. ") {
		return fmt.Errorf("%w: %q", ErrInvalidName, svc.APIName)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM df_sys_service WHERE api_name = `+s.arg(1), svc.APIName).Scan(&exists)
	if err != nil {
		return connErr("register service", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, svc.APIName)
	}

	var storage sql.NullInt64
	if svc.StorageTypeID != nil {
		storage = sql.NullInt64{Int64: int64(*svc.StorageTypeID), Valid: true}
	}
	query := fmt.Sprintf(
		`INSERT INTO df_sys_service (api_name, type_id, storage_type_id, description) VALUES (%s, %s, %s, %s)`,
		s.arg(1), s.arg(2), s.arg(3), s.arg(4))
	if _, err := s.db.ExecContext(ctx, query, svc.APIName, int(svc.TypeID), storage, svc.Description); err != nil {
		return connErr("register service", err)
	}
	return nil
}

// Remove deletes a service row by api name.
func (s *SQLStore) Remove(ctx context.Context, apiName string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	name := domain.NormalizeAPIName(apiName)
	res, err := s.db.ExecContext(ctx, `DELETE FROM df_sys_service WHERE api_name = `+s.arg(1), name)
	if err != nil {
		return connErr("remove service", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewNotFoundError("service", name)
	}
	return nil
}

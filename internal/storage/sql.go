package storage

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	selectSlot = `SELECT payload FROM cart_slots WHERE slot_key = $1`
	upsertSlot = `
		INSERT INTO cart_slots (slot_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot_key) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`
)

// SQL keeps the slot as a row in cart_slots. The same statements run on
// SQLite and PostgreSQL.
type SQL struct {
	db  *sqlx.DB
	key string
}

func NewSQL(db *sqlx.DB, key string) *SQL {
	return &SQL{db: db, key: key}
}

func (s *SQL) Load(ctx context.Context) (string, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, selectSlot, s.key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to query cart slot")
	}
	return payload, nil
}

func (s *SQL) Save(ctx context.Context, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertSlot, s.key, value, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "failed to upsert cart slot")
	}
	return nil
}

func SQLFactory(db *sqlx.DB) Factory {
	return func(key string) Storage {
		return NewSQL(db, key)
	}
}

// OpenSQLite opens the database file and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create migration driver")
	}
	if err := runMigrations("sqlite", driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects with dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create migration driver")
	}
	if err := runMigrations("postgres", driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runMigrations(name string, driver database.Driver) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "could not open migrations")
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return errors.Wrap(err, "could not create migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "could not run migrations")
	}
	return nil
}

// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open and migrated database handle.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateInquiry(ctx context.Context, in *model.Inquiry) error {
	return queryCreateInquiry(ctx, s.db, in)
}

func (s *PostgresStore) GetInquiry(ctx context.Context, id string) (*model.Inquiry, error) {
	in, err := queryGetInquiry(ctx, s.db, id)
	return in, notFound(err)
}

func (s *PostgresStore) ListInquiries(ctx context.Context) ([]*model.Inquiry, error) {
	return queryListInquiries(ctx, s.db)
}

func (s *PostgresStore) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	return queryCreateAnnouncement(ctx, s.db, a)
}

func (s *PostgresStore) GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := queryGetAnnouncement(ctx, s.db, id)
	return a, notFound(err)
}

func (s *PostgresStore) ListAnnouncements(ctx context.Context) ([]*model.Announcement, error) {
	return queryListAnnouncements(ctx, s.db)
}

func (s *PostgresStore) UpdateAnnouncement(ctx context.Context, a *model.Announcement) error {
	return notFound(queryUpdateAnnouncement(ctx, s.db, a))
}

func (s *PostgresStore) DeleteAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := queryDeleteAnnouncement(ctx, s.db, id)
	return a, notFound(err)
}

func (s *PostgresStore) CreateSchool(ctx context.Context, sc *model.School) error {
	return queryCreateSchool(ctx, s.db, sc)
}

func (s *PostgresStore) GetSchool(ctx context.Context, id string) (*model.School, error) {
	sc, err := queryGetSchool(ctx, s.db, id)
	return sc, notFound(err)
}

func (s *PostgresStore) ListSchools(ctx context.Context) ([]*model.School, error) {
	return queryListSchools(ctx, s.db)
}

func (s *PostgresStore) UpdateSchool(ctx context.Context, sc *model.School) error {
	return notFound(queryUpdateSchool(ctx, s.db, sc))
}

func (s *PostgresStore) DeleteSchool(ctx context.Context, id string) (*model.School, error) {
	sc, err := queryDeleteSchool(ctx, s.db, id)
	return sc, notFound(err)
}

// notFound maps sql.ErrNoRows onto store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

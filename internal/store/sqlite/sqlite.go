// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	inquiryColumns      = `id, name, email, phone, program, grade, message, timestamp, created_at, updated_at`
	announcementColumns = `id, title, date, description, image, created_at, updated_at`
	schoolColumns       = `id, name, image, created_at, updated_at`
)

// SQLiteStore implements store.Store backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New opens (creating if needed) the database file at path and applies
// pending migrations.
func New(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("failed to run migrations: %w (also failed to close db: %v)", err, cerr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateInquiry(ctx context.Context, in *model.Inquiry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inquiries (`+inquiryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Email, nullable(in.Phone), in.Program, in.Grade, in.Message,
		in.Timestamp.UTC(), in.CreatedAt.UTC(), in.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetInquiry(ctx context.Context, id string) (*model.Inquiry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = ?`, id)
	in, err := scanInquiry(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return in, nil
}

func (s *SQLiteStore) ListInquiries(ctx context.Context) ([]*model.Inquiry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	out := []*model.Inquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (`+announcementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Date, a.Description, a.Image, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = ?`, id)
	a, err := scanAnnouncement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAnnouncements(ctx context.Context) ([]*model.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+announcementColumns+` FROM announcements ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	out := []*model.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateAnnouncement(ctx context.Context, a *model.Announcement) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE announcements SET title = ?, date = ?, description = ?, image = ?, updated_at = ? WHERE id = ?`,
		a.Title, a.Date, a.Description, a.Image, a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) DeleteAnnouncement(ctx context.Context, id string) (*model.Announcement, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM announcements WHERE id = ? RETURNING `+announcementColumns, id)
	a, err := scanAnnouncement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *SQLiteStore) CreateSchool(ctx context.Context, sc *model.School) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schools (`+schoolColumns+`) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Image, sc.CreatedAt.UTC(), sc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSchool(ctx context.Context, id string) (*model.School, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = ?`, id)
	sc, err := scanSchool(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return sc, nil
}

func (s *SQLiteStore) ListSchools(ctx context.Context) ([]*model.School, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()

	out := []*model.School{}
	for rows.Next() {
		sc, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateSchool(ctx context.Context, sc *model.School) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schools SET name = ?, image = ?, updated_at = ? WHERE id = ?`,
		sc.Name, sc.Image, sc.UpdatedAt.UTC(), sc.ID)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return affected(res)
}

func (s *SQLiteStore) DeleteSchool(ctx context.Context, id string) (*model.School, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM schools WHERE id = ? RETURNING `+schoolColumns, id)
	sc, err := scanSchool(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return sc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row scanner) (*model.Inquiry, error) {
	var in model.Inquiry
	var phone sql.NullString
	if err := row.Scan(&in.ID, &in.Name, &in.Email, &phone, &in.Program, &in.Grade, &in.Message,
		&in.Timestamp, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.Phone = phone.String
	return &in, nil
}

func scanAnnouncement(row scanner) (*model.Announcement, error) {
	var a model.Announcement
	if err := row.Scan(&a.ID, &a.Title, &a.Date, &a.Description, &a.Image, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanSchool(row scanner) (*model.School, error) {
	var sc model.School
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Image, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return nil, err
	}
	return &sc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

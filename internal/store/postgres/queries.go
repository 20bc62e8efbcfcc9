package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/campus/internal/model"
)

// Column lists used for SELECT and RETURNING clauses. Scan helpers in scan.go
// expect exactly this order.
const (
	inquiryColumns      = `id, name, email, phone, program, grade, message, "timestamp", created_at, updated_at`
	announcementColumns = `id, title, date, description, image, created_at, updated_at`
	schoolColumns       = `id, name, image, created_at, updated_at`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- Inquiries ---

func queryCreateInquiry(ctx context.Context, db executor, in *model.Inquiry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO inquiries (`+inquiryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		in.ID,
		in.Name,
		in.Email,
		nullString(in.Phone),
		in.Program,
		in.Grade,
		in.Message,
		in.Timestamp,
		in.CreatedAt,
		in.UpdatedAt,
	)
	return err
}

func queryGetInquiry(ctx context.Context, db executor, id string) (*model.Inquiry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id)
	return scanInquiry(row)
}

func queryListInquiries(ctx context.Context, db executor) ([]*model.Inquiry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY "timestamp" DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Inquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// --- Announcements ---

func queryCreateAnnouncement(ctx context.Context, db executor, a *model.Announcement) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO announcements (`+announcementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID,
		a.Title,
		a.Date,
		a.Description,
		a.Image,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func queryGetAnnouncement(ctx context.Context, db executor, id string) (*model.Announcement, error) {
	row := db.QueryRowContext(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	return scanAnnouncement(row)
}

func queryListAnnouncements(ctx context.Context, db executor) ([]*model.Announcement, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+announcementColumns+` FROM announcements ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func queryUpdateAnnouncement(ctx context.Context, db executor, a *model.Announcement) error {
	res, err := db.ExecContext(ctx, `
		UPDATE announcements
		SET title = $2, date = $3, description = $4, image = $5, updated_at = $6
		WHERE id = $1`,
		a.ID,
		a.Title,
		a.Date,
		a.Description,
		a.Image,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryDeleteAnnouncement(ctx context.Context, db executor, id string) (*model.Announcement, error) {
	row := db.QueryRowContext(ctx, `DELETE FROM announcements WHERE id = $1 RETURNING `+announcementColumns, id)
	return scanAnnouncement(row)
}

// --- Schools ---

func queryCreateSchool(ctx context.Context, db executor, s *model.School) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO schools (`+schoolColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID,
		s.Name,
		s.Image,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func queryGetSchool(ctx context.Context, db executor, id string) (*model.School, error) {
	row := db.QueryRowContext(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id)
	return scanSchool(row)
}

func queryListSchools(ctx context.Context, db executor) ([]*model.School, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryUpdateSchool(ctx context.Context, db executor, s *model.School) error {
	res, err := db.ExecContext(ctx, `
		UPDATE schools
		SET name = $2, image = $3, updated_at = $4
		WHERE id = $1`,
		s.ID,
		s.Name,
		s.Image,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryDeleteSchool(ctx context.Context, db executor, id string) (*model.School, error) {
	row := db.QueryRowContext(ctx, `DELETE FROM schools WHERE id = $1 RETURNING `+schoolColumns, id)
	return scanSchool(row)
}

// requireRow turns an update that touched no rows into sql.ErrNoRows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

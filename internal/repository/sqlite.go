package repository

import (
	"CaseComments/internal/models"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	author TEXT NOT NULL,
	content TEXT NOT NULL,
	parent_id TEXT,
	attachments TEXT NOT NULL DEFAULT '[]',
	revision INTEGER NOT NULL DEFAULT 1,
	edited BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_case ON comments(case_id);
`

const (
	sqliteCreateQuery  = `INSERT INTO comments (` + commentColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?)`
	sqliteGetQuery     = `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`
	sqliteListQuery    = `SELECT ` + commentColumns + ` FROM comments WHERE case_id = ? ORDER BY created_at ASC, rowid ASC`
	sqliteUpdateQuery  = `UPDATE comments SET content = ?, edited = ?, revision = ?, updated_at = ? WHERE id = ? AND revision = ?`
	sqliteDeleteQuery  = `DELETE FROM comments WHERE id = ?`
	sqliteExistsQuery  = `SELECT 1 FROM comments WHERE id = ?`
	sqliteSearchQuery  = `SELECT ` + commentColumns + ` FROM comments WHERE unicode_lower(content) LIKE ? ESCAPE '\' ORDER BY created_at DESC LIMIT 50`
	sqliteMaxOpenConns = 1
)

// SQLiteRepository stores comments in a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	log *zap.Logger
}

var registerFuncs sync.Once

// unicode_lower folds case with Go's Unicode tables; the built-in lower() and
// LIKE only fold ASCII.
func registerUnicodeLower() {
	registerFuncs.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
}

func NewSQLiteRepository(path string, log *zap.Logger) (*SQLiteRepository, error) {
	registerUnicodeLower()
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single shared connection.
	db.SetMaxOpenConns(sqliteMaxOpenConns)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info("SQLite store ready", zap.String("path", path))
	return &SQLiteRepository{db: db, log: log.Named("repository")}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, c *models.Comment) error {
	attachments, err := encodeAttachments(c.Attachments)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqliteCreateQuery,
		c.ID, c.CaseID, c.Author, c.Content, c.ParentID, attachments,
		c.Revision, c.Edited, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create comment", zap.String("case_id", c.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx, sqliteGetQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
		}
		r.log.Error("Failed to get comment by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

func (r *SQLiteRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, sqliteListQuery, caseID)
	if err != nil {
		r.log.Error("Failed to list comments by case", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Comment, expectedRevision int) error {
	res, err := r.db.ExecContext(ctx, sqliteUpdateQuery,
		c.Content, c.Edited, c.Revision, c.UpdatedAt, c.ID, expectedRevision)
	if err != nil {
		r.log.Error("Failed to update comment", zap.String("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return updateOutcome(res, c.ID, func() (bool, error) {
		return rowExists(r.db.QueryRowContext(ctx, sqliteExistsQuery, c.ID))
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, sqliteDeleteQuery, id)
	if err != nil {
		r.log.Error("Failed to delete comment", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return deleteOutcome(res, id)
}

func (r *SQLiteRepository) SearchByText(ctx context.Context, query string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSearchQuery, containsPattern(strings.ToLower(query)))
	if err != nil {
		r.log.Error("Failed to search comments", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to search comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}

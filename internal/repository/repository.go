package repository

import (
	"CaseComments/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"go.uber.org/zap"
	"path/filepath"
	"time"
)

// Repository stores comments in Postgres through a master/slave pool.
type Repository struct {
	db  *dbpg.DB
	log *zap.Logger
}

const (
	commentColumns      = `id,case_id,author,content,parent_id,attachments,revision,edited,created_at,updated_at`
	createQuery         = `INSERT INTO comments (` + commentColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	getCommentByIDQuery = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	listByCaseQuery     = `SELECT ` + commentColumns + ` FROM comments WHERE case_id = $1 ORDER BY created_at ASC, seq ASC`
	updateCommentQuery  = `UPDATE comments SET content = $1, edited = $2, revision = $3, updated_at = $4 WHERE id = $5 AND revision = $6`
	deleteCommentQuery  = `DELETE FROM comments WHERE id = $1`
	commentExistsQuery  = `SELECT 1 FROM comments WHERE id = $1`
	searchCommentsQuery = `SELECT ` + commentColumns + ` FROM comments WHERE content ILIKE $1 ESCAPE '\' ORDER BY created_at DESC LIMIT 50`
)

var (
	retryStrategy = retry.Strategy{
		Attempts: 5,
		Delay:    time.Millisecond,
		Backoff:  2,
	}
)

func NewRepository(masterDSN string, slaveDSNs []string, migratePath string, log *zap.Logger) (*Repository, error) {
	opts := dbpg.Options{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, &opts)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Starting database migrations")

	if err := runMigrations(masterDSN, migratePath); err != nil {
		log.Error("Failed to run migrations", zap.Error(err))
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	log.Info("Successfully migrated database")

	return &Repository{db: db, log: log.Named("repository")}, nil
}

func (r *Repository) Create(ctx context.Context, c *models.Comment) error {
	attachments, err := encodeAttachments(c.Attachments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecWithRetry(ctx, retryStrategy, createQuery,
		c.ID, c.CaseID, c.Author, c.Content, c.ParentID, attachments,
		c.Revision, c.Edited, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create comment in DB", zap.String("case_id", c.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, getCommentByIDQuery, id)
	if err != nil {
		r.log.Error("Failed to get comment by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
		}
		r.log.Error("Failed to scan comment by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

func (r *Repository) ListByCase(ctx context.Context, caseID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryWithRetry(ctx, retryStrategy, listByCaseQuery, caseID)
	if err != nil {
		r.log.Error("Failed to list comments by case", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		r.log.Error("Failed to scan case comments", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *Repository) Update(ctx context.Context, c *models.Comment, expectedRevision int) error {
	res, err := r.db.ExecWithRetry(ctx, retryStrategy, updateCommentQuery,
		c.Content, c.Edited, c.Revision, c.UpdatedAt, c.ID, expectedRevision)
	if err != nil {
		r.log.Error("Failed to update comment", zap.String("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return updateOutcome(res, c.ID, func() (bool, error) {
		row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, commentExistsQuery, c.ID)
		if err != nil {
			return false, err
		}
		return rowExists(row)
	})
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecWithRetry(ctx, retryStrategy, deleteCommentQuery, id)
	if err != nil {
		r.log.Error("Failed to delete comment", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return deleteOutcome(res, id)
}

func (r *Repository) SearchByText(ctx context.Context, query string) ([]*models.Comment, error) {
	searchPattern := containsPattern(query)

	rows, err := r.db.QueryWithRetry(ctx, retryStrategy, searchCommentsQuery, searchPattern)
	if err != nil {
		r.log.Error("Failed to search comments with ILIKE", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to search comments: %w", err)
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		r.log.Error("Failed to scan searched comment", zap.Error(err))
		return nil, fmt.Errorf("failed to scan searched comment: %w", err)
	}
	return comments, nil
}

func runMigrations(connStr, migratePath string) error {
	if migratePath == "" {
		migratePath = "./migrations"
	}
	absPath, err := filepath.Abs(migratePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	absPath = filepath.ToSlash(absPath)
	migrateUrl := fmt.Sprintf("file://%s", absPath)
	m, err := migrate.New(migrateUrl, connStr)
	if err != nil {
		return fmt.Errorf("start migrations error %v", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration up error: %v", err)
	}
	return nil
}

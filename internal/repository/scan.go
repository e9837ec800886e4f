package repository

import (
	"CaseComments/internal/models"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c           models.Comment
		parentID    sql.NullString
		attachments []byte
	)
	err := row.Scan(&c.ID, &c.CaseID, &c.Author, &c.Content, &parentID, &attachments,
		&c.Revision, &c.Edited, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	c.Attachments, err = decodeAttachments(attachments)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanComments(rows *sql.Rows) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func encodeAttachments(a []models.Attachment) (string, error) {
	if a == nil {
		a = []models.Attachment{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode attachments: %w", err)
	}
	return string(data), nil
}

func decodeAttachments(data []byte) ([]models.Attachment, error) {
	out := []models.Attachment{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	return out, nil
}

// updateOutcome maps a conditional UPDATE that touched no rows to ErrNotFound
// when the comment is gone and to a revision conflict otherwise.
func updateOutcome(res sql.Result, id string, exists func() (bool, error)) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	ok, err := exists()
	if err != nil {
		return fmt.Errorf("failed to check comment %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("comment %s: %w", id, models.ErrConflict)
}

// rowExists reads the result of a "SELECT 1 ... WHERE id = ?" query.
func rowExists(row rowScanner) (bool, error) {
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern (with ESCAPE '\') matching query as a
// literal substring.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func deleteOutcome(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	return nil
}

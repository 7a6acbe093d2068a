package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jotlabs/jot-server/domain"
)

// NoteStore persists notes in the notes table. Every query is scoped to a
// user id; there is no unscoped access path.
type NoteStore struct {
	pool *pgxpool.Pool
}

func NewNoteStore(pool *pgxpool.Pool) *NoteStore {
	return &NoteStore{pool: pool}
}

const noteColumns = `id, title, COALESCE(content, ''), tags, is_archived, created_at, updated_at, user_id`

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Tags, &n.IsArchived,
		&n.CreatedAt, &n.UpdatedAt, &n.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns one page of the user's notes plus the total size of the
// filtered set, both read under a single statement snapshot. tagTerms are
// lowercased; nil means no tag filter.
func (s *NoteStore) List(ctx context.Context, userID uuid.UUID, archived bool, tagTerms []string, offset, limit int) ([]*domain.Note, int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`, count(*) OVER () AS total
		FROM notes
		WHERE user_id = $1
		  AND is_archived = $2
		  AND ($3::text[] IS NULL OR EXISTS (
		      SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = ANY ($3)))
		ORDER BY updated_at DESC
		OFFSET $4 LIMIT $5`,
		userID, archived, tagTerms, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var (
		notes []*domain.Note
		total int
	)
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Tags, &n.IsArchived,
			&n.CreatedAt, &n.UpdatedAt, &n.UserID, &total); err != nil {
			return nil, 0, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}

	// A page past the end returns no rows, so the window total is lost;
	// fall back to a count-only read.
	if len(notes) == 0 {
		err := s.pool.QueryRow(ctx, `
			SELECT count(*)
			FROM notes
			WHERE user_id = $1
			  AND is_archived = $2
			  AND ($3::text[] IS NULL OR EXISTS (
			      SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = ANY ($3)))`,
			userID, archived, tagTerms).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("count notes: %w", err)
		}
	}
	return notes, total, nil
}

func (s *NoteStore) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Note, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1 AND user_id = $2`, id, userID)
	return scanNote(row)
}

func (s *NoteStore) Insert(ctx context.Context, n *domain.Note) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, title, content, tags, is_archived, created_at, updated_at, user_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		n.ID, n.Title, n.Content, n.Tags, n.IsArchived, n.CreatedAt, n.UpdatedAt, n.UserID)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Update writes the full row. Last write wins; there is no version check.
func (s *NoteStore) Update(ctx context.Context, n *domain.Note) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notes
		SET title = $1, content = NULLIF($2, ''), tags = $3, is_archived = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		n.Title, n.Content, n.Tags, n.IsArchived, n.UpdatedAt, n.ID, n.UserID)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete reports whether a row was removed; an absent note is not an error.
func (s *NoteStore) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

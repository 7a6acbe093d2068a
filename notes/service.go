package notes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jotlabs/jot-server/domain"
)

// Store is the persistence surface the service needs. *store.NoteStore
// implements it; tests use an in-memory fake.
type Store interface {
	List(ctx context.Context, userID uuid.UUID, archived bool, tagTerms []string, offset, limit int) ([]*domain.Note, int, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Note, error)
	Insert(ctx context.Context, n *domain.Note) error
	Update(ctx context.Context, n *domain.Note) error
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// Service implements the note operations, always scoped to the owner.
// Concurrent updates to the same note are last-write-wins; there is no
// version check.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

const (
	defaultPageSize = 10
)

// CreateInput carries the client-settable fields of a new note. Identifier
// and timestamps are always assigned server-side.
type CreateInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	IsArchived bool     `json:"isArchived"`
}

// UpdateInput is a full replacement of a note's client-settable fields.
// ID must match the note being updated.
type UpdateInput struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsArchived bool      `json:"isArchived"`
}

// List returns one page of the user's notes, most recently updated first,
// plus the total size of the filtered set. tags is the raw comma-separated
// filter; empty means no filter.
func (s *Service) List(ctx context.Context, userID uuid.UUID, archived bool, tags string, pageNumber, pageSize int) ([]*domain.Note, int, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	terms := domain.SplitTagFilter(tags)
	offset := (pageNumber - 1) * pageSize

	items, total, err := s.store.List(ctx, userID, archived, terms, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*domain.Note{}
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Note, error) {
	return s.store.Get(ctx, id, userID)
}

func (s *Service) Create(ctx context.Context, in CreateInput, userID uuid.UUID) (*domain.Note, error) {
	now := s.now()
	n := &domain.Note{
		ID:         uuid.New(),
		Title:      in.Title,
		Content:    in.Content,
		Tags:       in.Tags,
		IsArchived: in.IsArchived,
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update replaces title, content, tags and the archived flag. CreatedAt is
// untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, userID uuid.UUID) (*domain.Note, error) {
	n, err := s.store.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	n.Title = in.Title
	n.Content = in.Content
	n.Tags = in.Tags
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.IsArchived = in.IsArchived
	n.UpdatedAt = s.now()

	if err := s.store.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Patch applies the operations to a copy of the stored note and persists
// the copy only when every operation applied cleanly. A missing note is
// domain.ErrNotFound; a bad operation is a *domain.PatchError.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, ops []domain.PatchOp, userID uuid.UUID) (*domain.Note, error) {
	n, err := s.store.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	patched := *n
	patched.Tags = append([]string(nil), n.Tags...)
	if err := domain.ApplyPatch(&patched, ops); err != nil {
		return nil, err
	}
	patched.UpdatedAt = s.now()

	if err := s.store.Update(ctx, &patched); err != nil {
		return nil, err
	}
	return &patched, nil
}

// Archive sets the archived flag. Setting the current value again is
// allowed and still refreshes UpdatedAt.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, archived bool, userID uuid.UUID) (*domain.Note, error) {
	n, err := s.store.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	n.IsArchived = archived
	n.UpdatedAt = s.now()

	if err := s.store.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete hard-deletes the note. Deleting an absent note reports false, not
// an error; the HTTP layer maps that to 404.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return s.store.Delete(ctx, id, userID)
}

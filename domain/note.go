package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a single note owned by one user. UserID never leaves the server;
// clients only ever see their own notes.
type Note struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	UserID     uuid.UUID `json:"-"`
}

// Pagination is serialized into the X-Pagination response header.
type Pagination struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// SplitTagFilter turns a comma-separated tag filter into trimmed,
// lowercased terms. Empty segments are dropped.
func SplitTagFilter(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}

// HasAnyTag reports whether the note carries at least one of the given
// lowercased terms. Comparison is case-insensitive, tag case is preserved.
func (n *Note) HasAnyTag(terms []string) bool {
	for _, tag := range n.Tags {
		lower := strings.ToLower(tag)
		for _, t := range terms {
			if lower == t {
				return true
			}
		}
	}
	return false
}

// Package bookmarks keeps the user's saved Sigma rules.
package bookmarks

import (
	"context"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
)

// Store is the bookmark list, most recent first and unique by rule id.
// All writes go through the preference store, which broadcasts
// BookmarksChanged.
type Store struct {
	prefs *store.Prefs
}

// New creates a Store on top of prefs.
func New(prefs *store.Prefs) *Store {
	return &Store{prefs: prefs}
}

// Toggle removes the bookmark for b.ID when present, otherwise puts b at
// the head of the list. It returns the new list.
func (s *Store) Toggle(ctx context.Context, b model.Bookmark) ([]model.Bookmark, error) {
	return s.prefs.UpdateBookmarks(ctx, func(list []model.Bookmark) []model.Bookmark {
		if contains(list, b.ID) {
			return without(list, b.ID)
		}
		return append([]model.Bookmark{b}, list...)
	})
}

// Remove drops the bookmark for id, if any.
func (s *Store) Remove(ctx context.Context, id int64) ([]model.Bookmark, error) {
	return s.prefs.UpdateBookmarks(ctx, func(list []model.Bookmark) []model.Bookmark {
		return without(list, id)
	})
}

// IsBookmarked reports whether the rule id is saved.
func (s *Store) IsBookmarked(ctx context.Context, id int64) bool {
	return contains(s.prefs.Bookmarks(ctx), id)
}

// List returns the saved bookmarks.
func (s *Store) List(ctx context.Context) []model.Bookmark {
	return s.prefs.Bookmarks(ctx)
}

// Clear removes every bookmark.
func (s *Store) Clear(ctx context.Context) error {
	return s.prefs.SetBookmarks(ctx, nil)
}

func contains(list []model.Bookmark, id int64) bool {
	for _, b := range list {
		if b.ID == id {
			return true
		}
	}
	return false
}

func without(list []model.Bookmark, id int64) []model.Bookmark {
	out := make([]model.Bookmark, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

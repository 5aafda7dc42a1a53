// Package drafts keeps the post generator's saved drafts.
//
// The whole list lives under one key of an injected KV store. It is read
// once by Load and written back on every change, newest first, capped at
// MaxDrafts.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Key is where the draft list is stored.
	Key = "jobsearch:li_drafts"
	// MaxDrafts is how many drafts are kept; older ones fall off.
	MaxDrafts = 12
)

var ErrNotFound = errors.New("draft not found")

// Draft is the saved form state of one post.
type Draft struct {
	ID            string    `json:"id"`
	PostType      string    `json:"postType"`
	Title         string    `json:"title"`
	Learnings     string    `json:"learnings"`
	Tone          string    `json:"tone"`
	IncludeEmojis bool      `json:"includeEmojis"`
	HashtagsInput string    `json:"hashtagsInput"`
	CTA           string    `json:"cta"`
	Name          string    `json:"name"`
	Company       string    `json:"company"`
	Role          string    `json:"role"`
	SavedAt       time.Time `json:"savedAt"`
}

// Store is the in-memory draft list backed by a KV.
type Store struct {
	kv KV

	mu     sync.RWMutex
	drafts []Draft
}

// Load reads the stored list from kv. A missing key is an empty list.
func Load(ctx context.Context, kv KV) (*Store, error) {
	raw, found, err := kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	s := &Store{kv: kv}
	if !found {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.drafts); err != nil {
		return nil, fmt.Errorf("decode drafts: %w", err)
	}
	return s, nil
}

// List returns the drafts, newest first.
func (s *Store) List() []Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Draft, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// Save stores d as the newest draft and persists the list. d gets a fresh ID
// and timestamp.
func (s *Store) Save(ctx context.Context, d Draft) (Draft, error) {
	d.ID = uuid.NewString()
	d.SavedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := append([]Draft{d}, s.drafts...)
	if len(updated) > MaxDrafts {
		updated = updated[:MaxDrafts]
	}
	if err := s.persist(ctx, updated); err != nil {
		return Draft{}, err
	}
	s.drafts = updated
	return d, nil
}

// Remove deletes the draft with id and persists the list.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		if d.ID != id {
			updated = append(updated, d)
		}
	}
	if len(updated) == len(s.drafts) {
		return ErrNotFound
	}
	if err := s.persist(ctx, updated); err != nil {
		return err
	}
	s.drafts = updated
	return nil
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context, list []Draft) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("save drafts: %w", err)
	}
	return nil
}

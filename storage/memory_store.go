package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"leomaster/models"
)

// MemoryStore keeps masterclasses in memory. It serves the site when no
// database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []models.Masterclass
	byUID  map[string]int
	nextID int64
	now    func() time.Time
	logger zerolog.Logger
}

// NewMemoryStore creates a store holding items. Items without an ID are
// numbered in order. A repeated uid replaces the earlier item in place
// and keeps its ID.
func NewMemoryStore(logger zerolog.Logger, items ...models.Masterclass) *MemoryStore {
	s := &MemoryStore{
		byUID:  make(map[string]int),
		nextID: 1,
		now:    time.Now,
		logger: logger,
	}
	for _, mc := range items {
		if mc.ID >= s.nextID {
			s.nextID = mc.ID + 1
		}
	}
	for _, mc := range items {
		if i, ok := s.byUID[mc.UID]; ok {
			logger.Warn().Str("uid", mc.UID).Msg("duplicate uid, keeping the later item")
			mc.ID = s.items[i].ID
			s.items[i] = mc
			continue
		}
		if mc.ID == 0 {
			mc.ID = s.nextID
			s.nextID++
		}
		s.byUID[mc.UID] = len(s.items)
		s.items = append(s.items, mc)
	}
	return s
}

// LoadMemoryStore seeds a store from a JSON file holding either an array
// of masterclasses or a listing page.
func LoadMemoryStore(path string, logger zerolog.Logger) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var (
		items    []models.Masterclass
		problems []error
	)
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var page models.Page
		if perr := json.Unmarshal(data, &page); perr != nil {
			return nil, fmt.Errorf("decode seed file %s: %w", path, err)
		}
		items, problems = page.Results, page.Malformed
	} else {
		items, problems = models.DecodeItems(raws)
	}
	for _, problem := range problems {
		logger.Warn().Err(problem).Str("path", path).Msg("seed item decoded with zero values")
	}

	logger.Info().Str("path", path).Int("items", len(items)).Msg("seeded memory store")
	return NewMemoryStore(logger, items...), nil
}

// List returns one page of q.Group.
func (s *MemoryStore) List(_ context.Context, q Query) (Result, error) {
	now := q.Now
	if now.IsZero() {
		now = s.now()
	}

	s.mu.RLock()
	var matched []models.Masterclass
	for _, mc := range s.items {
		if q.Group.Match(mc, now) {
			matched = append(matched, mc)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return q.Group.Less(matched[i], matched[j])
	})

	off, err := offset(q, len(matched))
	if err != nil {
		return Result{}, err
	}
	end := off + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return Result{Count: len(matched), Items: matched[off:end]}, nil
}

// Upsert inserts new masterclasses and replaces existing ones by uid,
// keeping their id and creation time.
func (s *MemoryStore) Upsert(_ context.Context, items []models.Masterclass) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, mc := range items {
		mc.ModificationTS = now
		if i, ok := s.byUID[mc.UID]; ok {
			mc.ID = s.items[i].ID
			mc.CreationTS = s.items[i].CreationTS
			s.items[i] = mc
			continue
		}
		mc.ID = s.nextID
		s.nextID++
		if mc.CreationTS.IsZero() {
			mc.CreationTS = now
		}
		s.byUID[mc.UID] = len(s.items)
		s.items = append(s.items, mc)
	}

	s.logger.Debug().Int("count", len(items)).Msg("upserted masterclasses")
	return len(items), nil
}

// Len returns the number of stored masterclasses.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) Close() error { return nil }

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leomaster/models"
)

var now = time.Date(2018, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixture() []models.Masterclass {
	day := 24 * time.Hour
	return []models.Masterclass{
		{ID: 1, UID: "past", Title: "Past", Date: now.Add(-3 * day), CreationTS: now.Add(-40 * day)},
		{ID: 2, UID: "soon", Title: "Soon", Date: now.Add(2 * day), CreationTS: now.Add(-20 * day)},
		{ID: 3, UID: "later", Title: "Later", Date: now.Add(9 * day), CreationTS: now.Add(-10 * day)},
		{ID: 4, UID: "fresh", Title: "Fresh", Date: now.Add(5 * day), CreationTS: now.Add(-1 * day)},
		{ID: 5, UID: "undated", Title: "Undated", CreationTS: now.Add(-2 * day)},
	}
}

func uids(items []models.Masterclass) []string {
	out := make([]string, len(items))
	for i, mc := range items {
		out[i] = mc.UID
	}
	return out
}

func TestMemoryStore_Groups(t *testing.T) {
	s := NewMemoryStore(zerolog.Nop(), fixture()...)
	ctx := context.Background()

	tests := []struct {
		group Group
		want  []string
	}{
		{GroupTopic, []string{"later", "fresh", "soon"}},
		{GroupHalfMonth, []string{"fresh", "undated", "later"}},
		{GroupMonth, []string{"fresh", "undated", "later", "soon"}},
		{GroupAll, []string{"later", "fresh", "soon", "past", "undated"}},
		{Group("3"), []string{"past", "soon", "later", "fresh", "undated"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			res, err := s.List(ctx, Query{Group: tt.group, Page: 1, PageSize: 10, Now: now})
			require.NoError(t, err)
			assert.Equal(t, tt.want, uids(res.Items))
			assert.Equal(t, len(tt.want), res.Count)
		})
	}
}

func TestMemoryStore_Pagination(t *testing.T) {
	s := NewMemoryStore(zerolog.Nop(), fixture()...)
	ctx := context.Background()

	q := Query{Group: GroupAll, Page: 1, PageSize: 2, Now: now}
	res, err := s.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"later", "fresh"}, uids(res.Items))
	assert.True(t, res.HasNext(q))

	q.Page = 3
	res, err = s.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"undated"}, uids(res.Items))
	assert.False(t, res.HasNext(q))

	q.Page = 4
	_, err = s.List(ctx, q)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	q.Page = 0
	_, err = s.List(ctx, q)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestMemoryStore_EmptyFirstPage(t *testing.T) {
	s := NewMemoryStore(zerolog.Nop())
	res, err := s.List(context.Background(), Query{Group: GroupTopic, Page: 1, PageSize: 12, Now: now})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Items)
}

func TestMemoryStore_Upsert(t *testing.T) {
	s := NewMemoryStore(zerolog.Nop(), fixture()...)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := s.Upsert(ctx, []models.Masterclass{
		{UID: "soon", Title: "Soon (moved)", Date: now.Add(3 * 24 * time.Hour)},
		{UID: "new", Title: "New"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 6, s.Len())

	res, err := s.List(ctx, Query{Group: Group("any"), Page: 1, PageSize: 10, Now: now})
	require.NoError(t, err)
	require.Len(t, res.Items, 6)

	moved := res.Items[1]
	assert.Equal(t, int64(2), moved.ID)
	assert.Equal(t, "Soon (moved)", moved.Title)
	assert.Equal(t, now.Add(-20*24*time.Hour), moved.CreationTS, "creation time is kept")
	assert.Equal(t, now, moved.ModificationTS)

	added := res.Items[5]
	assert.Equal(t, int64(6), added.ID)
	assert.Equal(t, now, added.CreationTS)
}

func TestLoadMemoryStore(t *testing.T) {
	dir := t.TempDir()

	arrayPath := filepath.Join(dir, "array.json")
	require.NoError(t, os.WriteFile(arrayPath, []byte(`[{"uid":"a","title":"A"},{"uid":"b","title":"B"}]`), 0o644))
	s, err := LoadMemoryStore(arrayPath, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	pagePath := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(pagePath, []byte(`{"count":1,"next":null,"results":[{"uid":"c","title":"C","price":"100.00"}]}`), 0o644))
	s, err = LoadMemoryStore(pagePath, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`not json`), 0o644))
	_, err = LoadMemoryStore(badPath, zerolog.Nop())
	assert.Error(t, err)

	_, err = LoadMemoryStore(filepath.Join(dir, "missing.json"), zerolog.Nop())
	assert.Error(t, err)
}

func TestGroup_Named(t *testing.T) {
	for _, g := range Groups {
		assert.True(t, g.Named(), g)
	}
	assert.False(t, Group("3").Named())
	assert.False(t, Group("").Named())
}

func TestGroup_Clause(t *testing.T) {
	where, args, order := GroupTopic.clause(now)
	assert.Equal(t, "WHERE mc.date >= $1", where)
	assert.Equal(t, []any{now}, args)
	assert.Equal(t, "ORDER BY mc.date DESC, mc.id", order)

	_, args, _ = GroupHalfMonth.clause(now)
	assert.Equal(t, []any{now.Add(-15 * 24 * time.Hour)}, args)

	where, args, order = Group("3").clause(now)
	assert.Empty(t, where)
	assert.Nil(t, args)
	assert.Equal(t, "ORDER BY mc.id", order)
}

func TestNewMemoryStore_DuplicateUIDKeepsOneItem(t *testing.T) {
	s := NewMemoryStore(zerolog.Nop(),
		models.Masterclass{UID: "a", Title: "First"},
		models.Masterclass{UID: "b", Title: "Other"},
		models.Masterclass{UID: "a", Title: "Second"},
	)
	require.Equal(t, 2, s.Len())

	res, err := s.List(context.Background(), Query{Group: GroupAll, Page: 1, PageSize: 10, Now: now})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Count)

	_, err = s.Upsert(context.Background(), []models.Masterclass{{UID: "a", Title: "Third"}})
	require.NoError(t, err)

	res, err = s.List(context.Background(), Query{Group: GroupAll, Page: 1, PageSize: 10, Now: now})
	require.NoError(t, err)
	titles := make([]string, 0, len(res.Items))
	for _, mc := range res.Items {
		titles = append(titles, mc.Title)
	}
	assert.ElementsMatch(t, []string{"Third", "Other"}, titles)
}

func TestLoadMemoryStore_MalformedFieldsKeepItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"uid":"a","title":"A","date":"2019-01-23 19:00","price":"n/a"},{"uid":"b","title":"B","total_seats":"ten"}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err := LoadMemoryStore(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/flow"
)

type purger interface {
	flow.Store
	Purge(ctx context.Context, before time.Time) (int, error)
}

func stores(t *testing.T) map[string]purger {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, sqlite.Close()) })

	return map[string]purger{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func sampleSession() *flow.Session {
	return &flow.Session{
		UserID: "42",
		State:  flow.StateScratchAwaitData,
		Cursor: 8,
		Record: &cv.Record{
			Contact: &cv.Contact{FullName: "Jane Doe", Email: "jane@example.com"},
			WorkExperience: []cv.WorkItem{{
				JobTitle: "Engineer", Company: "Acme", StartDate: "2020-01", EndDate: "Present",
				Description: []string{"Built X"},
			}},
			Skills: []cv.SkillGroup{{Category: cv.General, SkillsList: []string{"Go"}}},
		},
		UpdatedAt: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "42")
			assert.True(t, errors.Is(err, ErrNotFound))

			want := sampleSession()
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx, "42")
			require.NoError(t, err)
			assert.Equal(t, want.State, got.State)
			assert.Equal(t, want.Cursor, got.Cursor)
			assert.Equal(t, want.Record, got.Record)
			assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

			got.Record.Summary = "changed after load"
			again, err := store.Load(ctx, "42")
			require.NoError(t, err)
			assert.Empty(t, again.Record.Summary)
		})
	}
}

func TestStoreOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sess := sampleSession()
			require.NoError(t, store.Save(ctx, sess))

			sess.State = flow.StateReviewingData
			sess.Record = nil
			require.NoError(t, store.Save(ctx, sess))

			got, err := store.Load(ctx, "42")
			require.NoError(t, err)
			assert.Equal(t, flow.StateReviewingData, got.State)
			assert.Nil(t, got.Record)

			require.NoError(t, store.Delete(ctx, "42"))
			require.NoError(t, store.Delete(ctx, "42"))
			_, err = store.Load(ctx, "42")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStorePurge(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			old := sampleSession()
			old.UserID = "old"
			fresh := sampleSession()
			fresh.UserID = "fresh"
			fresh.UpdatedAt = old.UpdatedAt.Add(48 * time.Hour)

			require.NoError(t, store.Save(ctx, old))
			require.NoError(t, store.Save(ctx, fresh))

			removed, err := store.Purge(ctx, old.UpdatedAt.Add(24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			_, err = store.Load(ctx, "old")
			assert.True(t, errors.Is(err, ErrNotFound))
			_, err = store.Load(ctx, "fresh")
			assert.NoError(t, err)
		})
	}
}

func TestSaveRequiresUserID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Save(context.Background(), &flow.Session{}))
		})
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sampleSession()))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, flow.StateScratchAwaitData, got.State)
	assert.Equal(t, path, second.Path())
}

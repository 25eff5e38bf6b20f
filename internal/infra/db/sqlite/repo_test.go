package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishscan/internal/domain/feedback"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestScanRepositoryCRUD(t *testing.T) {
	repo := NewScanRepository(newTestDB(t))
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)

	_, err := repo.FindByURL(ctx, "http://example.com")
	assert.ErrorIs(t, err, scans.ErrNotFound)

	err = repo.Insert(ctx, &scans.ScanRecord{
		URL:        "http://example.com",
		Features:   []float64{18, 1, 0.5},
		Prediction: scans.VerdictSafe,
		CreatedAt:  created,
	})
	require.NoError(t, err)

	got, err := repo.FindByURL(ctx, "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got.URL)
	assert.Equal(t, []float64{18, 1, 0.5}, got.Features)
	assert.Equal(t, scans.VerdictSafe, got.Prediction)
	assert.True(t, created.Equal(got.CreatedAt))

	// exact match only
	_, err = repo.FindByURL(ctx, "http://example.com/")
	assert.ErrorIs(t, err, scans.ErrNotFound)

	require.NoError(t, repo.Update(ctx, "http://example.com", []float64{2, 3}, scans.VerdictPhishing))
	got, err = repo.FindByURL(ctx, "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, got.Features)
	assert.Equal(t, scans.VerdictPhishing, got.Prediction)
	assert.True(t, created.Equal(got.CreatedAt), "update must keep created_at")
}

func TestScanRepositoryUniqueURL(t *testing.T) {
	db := newTestDB(t)
	repo := NewScanRepository(db)
	ctx := context.Background()
	rec := &scans.ScanRecord{URL: "http://dup.test", Features: []float64{1}, Prediction: scans.VerdictSafe, CreatedAt: time.Now()}

	require.NoError(t, repo.Insert(ctx, rec))
	err := repo.Insert(ctx, rec)
	assert.ErrorIs(t, err, scans.ErrDuplicateURL)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_records WHERE url = ?`, rec.URL).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestScanRepositoryUpdateMissing(t *testing.T) {
	repo := NewScanRepository(newTestDB(t))

	err := repo.Update(context.Background(), "http://missing.test", nil, scans.VerdictSafe)
	assert.ErrorIs(t, err, scans.ErrNotFound)
}

func TestScanRepositoryLatest(t *testing.T) {
	repo := NewScanRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Insert(ctx, &scans.ScanRecord{
			URL:        "http://site" + string(rune('a'+i)) + ".test",
			Features:   []float64{float64(i)},
			Prediction: scans.VerdictSafe,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.Equal(t, "http://sitel.test", list[0].URL)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}
}

func TestFeedbackRepository(t *testing.T) {
	repo := NewFeedbackRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &feedback.Event{ID: "a", URL: "http://example.com", UserFeedback: "looks fake", Type: scans.VerdictPhishing, CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &feedback.Event{ID: "b", URL: "http://example.com", Type: scans.VerdictSafe, CreatedAt: base.Add(time.Second)}))

	list, err := repo.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, feedback.EventID("b"), list[0].ID)
	assert.Empty(t, list[0].UserFeedback)
	assert.Equal(t, scans.VerdictSafe, list[0].Type)

	assert.Equal(t, "looks fake", list[1].UserFeedback)
	assert.False(t, list[1].Verified)
	assert.True(t, base.Equal(list[1].CreatedAt))
}

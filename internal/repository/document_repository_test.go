package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mapnotes-backend-go/internal/database"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

func newRepo(t *testing.T) *DocumentRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "docs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	doc := &models.StoredDocument{
		Name:         "autosave",
		Body:         []byte(`{"type":"FeatureCollection","features":[]}`),
		Version:      "2.1.0",
		FeatureCount: 0,
		SavedAt:      "2026-01-01T10:00:00Z",
	}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.Load(ctx, "autosave")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	// saving again replaces
	doc.Body = []byte(`{"type":"FeatureCollection","features":[{}]}`)
	doc.FeatureCount = 1
	require.NoError(t, repo.Save(ctx, doc))
	got, err = repo.Load(ctx, "autosave")
	require.NoError(t, err)
	assert.Equal(t, 1, got.FeatureCount)
	assert.Equal(t, doc.Body, got.Body)
}

func TestLoadMissing(t *testing.T) {
	_, err := newRepo(t).Load(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
}

func TestLoadDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Save(ctx, &models.StoredDocument{Name: "x", Body: []byte("{}"), Version: "2.1.0", SavedAt: "t"}))

	_, err := repo.db.Exec("UPDATE documents SET body = ? WHERE name = 'x'", []byte("{ }"))
	require.NoError(t, err)

	_, err = repo.Load(ctx, "x")
	assert.True(t, errors.Is(err, ErrDocumentCorrupt))
}

func TestSaveRequiresName(t *testing.T) {
	err := newRepo(t).Save(context.Background(), &models.StoredDocument{Body: []byte("{}")})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, &models.StoredDocument{
			Name:    fmt.Sprintf("plan_%d", i),
			Body:    []byte("{}"),
			Version: "2.1.0",
			SavedAt: fmt.Sprintf("2026-01-0%dT00:00:00Z", i+1),
		}))
	}
	require.NoError(t, repo.Save(ctx, &models.StoredDocument{Name: "other", Body: []byte("{}"), Version: "2.1.0", SavedAt: "2025"}))

	docs, total, err := repo.List(ctx, models.DocumentFilter{Prefix: "plan_", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, docs, 2)
	assert.Equal(t, "plan_4", docs[0].Name, "newest first")

	docs, _, err = repo.List(ctx, models.DocumentFilter{Prefix: "plan_", Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "plan_0", docs[0].Name)

	// "%" in the prefix is matched literally
	_, total, err = repo.List(ctx, models.DocumentFilter{Prefix: "plan%"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	require.NoError(t, repo.Delete(ctx, "other"))
	assert.True(t, errors.Is(repo.Delete(ctx, "other"), ErrDocumentNotFound))

	_, total, err = repo.List(ctx, models.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

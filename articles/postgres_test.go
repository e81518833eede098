package articles

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createPostgresStore connects to the database named by
// NEWSGRAB_TEST_POSTGRES_DSN and empties the articles table. The test is
// skipped when the variable is unset.
func createPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("NEWSGRAB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NEWSGRAB_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err, "should connect to postgres")

	_, err = store.Clear(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Clear(context.Background())
		store.Close()
	})
	return store
}

func TestPostgresStore_InsertAndGet(t *testing.T) {
	store := createPostgresStore(t)
	ctx := context.Background()

	article := sampleArticle("https://example.com/news/one", "Tech", "2024-01-05")
	inserted, err := store.InsertIfAbsent(ctx, article)
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := store.Get(ctx, article.URL)
	require.NoError(t, err)
	assert.True(t, article.ScrapedAt.Equal(got.ScrapedAt))

	got.ScrapedAt = article.ScrapedAt
	assert.Equal(t, article, got)

	_, err = store.Get(ctx, "https://example.com/news/missing")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestPostgresStore_NilThumbnail(t *testing.T) {
	store := createPostgresStore(t)
	ctx := context.Background()

	article := sampleArticle("https://example.com/news/bare", "Tech", "2024-01-05")
	article.Thumbnail = nil
	article.Images = nil
	_, err := store.InsertIfAbsent(ctx, article)
	require.NoError(t, err)

	got, err := store.Get(ctx, article.URL)
	require.NoError(t, err)
	assert.Nil(t, got.Thumbnail)
	assert.NotNil(t, got.Images)
	assert.Empty(t, got.Images)
}

func TestPostgresStore_InsertIfAbsentIsIdempotent(t *testing.T) {
	store := createPostgresStore(t)
	ctx := context.Background()

	article := sampleArticle("https://example.com/news/dup", "Tech", "2024-01-05")

	var wg sync.WaitGroup
	var insertedCount atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := store.InsertIfAbsent(ctx, article)
			assert.NoError(t, err)
			if inserted {
				insertedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), insertedCount.Load())

	exists, err := store.Exists(ctx, article.URL)
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostgresStore_ListCategoryFilter(t *testing.T) {
	store := createPostgresStore(t)
	ctx := context.Background()

	for i, category := range []string{"Réseaux sociaux", "IA & Data", "100%_Tech", "Économie", "100 Tech"} {
		_, err := store.InsertIfAbsent(ctx, sampleArticle(fmt.Sprintf("https://example.com/news/%d", i), category, "2024-01-05"))
		require.NoError(t, err)
	}

	tests := []struct {
		category string
		want     int
	}{
		{"sociaux", 1},
		{"ia", 2},
		{"%", 1},
		{"_", 1},
		{"CONOMIE", 1},
		{"nothing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			list, err := store.List(ctx, Filter{Category: tt.category})
			require.NoError(t, err)
			assert.Len(t, list, tt.want)

			count, err := store.CountCategory(ctx, tt.category)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), count)
		})
	}

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)
}

package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists articles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		article_id UUID PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		thumbnail TEXT,
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		publication_date TEXT NOT NULL,
		images JSONB NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles (category);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Exists reports whether an article with the given URL is stored.
func (s *PostgresStore) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)", url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query article: %w", err)
	}
	return exists, nil
}

// InsertIfAbsent stores the article unless its URL is already present.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, article *Article) (bool, error) {
	if article == nil {
		return false, errNilArticle
	}
	if article.URL == "" {
		return false, ErrEmptyURL
	}

	images, err := json.Marshal(article.Images)
	if err != nil {
		return false, fmt.Errorf("failed to marshal images: %w", err)
	}

	query := `
		INSERT INTO articles (
			article_id, url, title, thumbnail, category, summary, author,
			content, publication_date, images, scraped_at, word_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (url) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		uuid.New(),
		article.URL,
		article.Title,
		article.Thumbnail,
		article.Category,
		article.Summary,
		article.Author,
		article.Content,
		article.PublicationDate,
		images,
		article.ScrapedAt,
		article.WordCount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Get retrieves an article by URL.
func (s *PostgresStore) Get(ctx context.Context, url string) (*Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE url = $1"

	article, err := scanPgArticle(s.pool.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}

	return article, nil
}

// List lists articles, newest publication first. ILIKE makes the category
// match case-insensitive; folding of non-ASCII letters follows the
// database's LC_CTYPE.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles"

	where, args := pgCategoryClause(filter.Category)
	query += where

	args = append(args, filter.limit(), max(filter.Offset, 0))
	query += fmt.Sprintf(" ORDER BY publication_date DESC, scraped_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		article, err := scanPgArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}

	return articles, rows.Err()
}

// Categories returns the distinct categories, sorted.
func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT category FROM articles ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}

	return categories, nil
}

// Count returns the number of stored articles.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

// CountCategory returns the number of articles whose category contains
// category, case-insensitively. An empty category counts everything.
func (s *PostgresStore) CountCategory(ctx context.Context, category string) (int64, error) {
	where, args := pgCategoryClause(category)

	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func pgCategoryClause(category string) (string, []any) {
	args := []any{}
	if category == "" {
		return "", args
	}
	args = append(args, "%"+escapeLike(category)+"%")
	return fmt.Sprintf(" WHERE category ILIKE $%d", len(args)), args
}

// Clear deletes every article and returns how many were removed.
func (s *PostgresStore) Clear(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM articles")
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPgArticle(row pgx.Row) (*Article, error) {
	var article Article
	var images []byte

	err := row.Scan(
		&article.URL, &article.Title, &article.Thumbnail, &article.Category,
		&article.Summary, &article.Author, &article.Content,
		&article.PublicationDate, &images, &article.ScrapedAt, &article.WordCount,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &article.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if article.Images == nil {
		article.Images = map[string]Image{}
	}

	return &article, nil
}

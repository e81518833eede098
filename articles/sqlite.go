package articles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriver is go-sqlite3 with a go_lower function registered on every
// connection. SQLite's own LOWER only folds ASCII.
const sqliteDriver = "sqlite3_newsgrab"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("go_lower", strings.ToLower, true)
		},
	})
}

// SQLiteStore persists articles in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

const articleColumns = `url, title, thumbnail, category, summary, author, content,
		       publication_date, images, scraped_at, word_count`

// NewSQLiteStore creates a new article store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers; SQLite would otherwise
	// report "database is locked" under the worker pool.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the articles table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		article_id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		thumbnail TEXT,
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		publication_date TEXT NOT NULL,
		images TEXT NOT NULL,
		scraped_at TEXT NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles (category);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists reports whether an article with the given URL is stored.
func (s *SQLiteStore) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM articles WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query article: %w", err)
	}
	return true, nil
}

// InsertIfAbsent stores the article unless its URL is already present. The
// check and the insert are one statement, so concurrent writers cannot both
// insert the same URL.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, article *Article) (bool, error) {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		article.URL,
		article.Title,
		article.Thumbnail,
		article.Category,
		article.Summary,
		article.Author,
		article.Content,
		article.PublicationDate,
		string(images),
		formatTime(article.ScrapedAt),
		article.WordCount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// Get retrieves an article by URL.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE url = ?"

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}

	return article, nil
}

// List lists articles, newest publication first, optionally filtered by a
// case-insensitive category substring.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles"

	where, args := sqliteCategoryClause(filter.Category)
	query += where

	query += " ORDER BY publication_date DESC, scraped_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.limit(), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}

	return articles, rows.Err()
}

// Categories returns the distinct categories, sorted.
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM articles ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// Count returns the number of stored articles.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

// CountCategory returns the number of articles whose category contains
// category, case-insensitively. An empty category counts everything.
func (s *SQLiteStore) CountCategory(ctx context.Context, category string) (int64, error) {
	where, args := sqliteCategoryClause(category)

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func sqliteCategoryClause(category string) (string, []any) {
	if category == "" {
		return "", nil
	}
	return ` WHERE go_lower(category) LIKE ? ESCAPE '\'`,
		[]any{"%" + escapeLike(strings.ToLower(category)) + "%"}
}

// Clear deletes every article and returns how many were removed.
func (s *SQLiteStore) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM articles")
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanArticle parses one row selected with articleColumns.
func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	var thumbnail sql.NullString
	var images, scrapedAt string

	err := row.Scan(
		&article.URL, &article.Title, &thumbnail, &article.Category,
		&article.Summary, &article.Author, &article.Content,
		&article.PublicationDate, &images, &scrapedAt, &article.WordCount,
	)
	if err != nil {
		return nil, err
	}

	if thumbnail.Valid {
		article.Thumbnail = &thumbnail.String
	}

	if err := json.Unmarshal([]byte(images), &article.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if article.Images == nil {
		article.Images = map[string]Image{}
	}

	article.ScrapedAt, err = parseTime(scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scraped_at: %w", err)
	}

	return &article, nil
}

// Helper functions for time formatting
func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.Truncate(0), nil
}

// Package articles defines the article record and the stores that persist
// it, keyed uniquely by canonical URL.
package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Custom errors for article store operations
var (
	ErrArticleNotFound   = errors.New("article not found")
	ErrEmptyURL          = errors.New("article url is required")
	ErrUnknownStorage    = errors.New("storage type must be sqlite or postgres")
	ErrMissingStorageDSN = errors.New("storage dsn is required")
	errNilArticle        = errors.New("article is nil")
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	likeEscape       = `\`
)

// Filter represents filtering options for listing articles.
type Filter struct {
	Category string // case-insensitive substring match
	Limit    int
	Offset   int
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// Store persists articles. InsertIfAbsent is atomic per URL: of two
// concurrent inserts for the same URL exactly one reports inserted=true.
type Store interface {
	Exists(ctx context.Context, url string) (bool, error)
	InsertIfAbsent(ctx context.Context, article *Article) (bool, error)
	Get(ctx context.Context, url string) (*Article, error)
	List(ctx context.Context, filter Filter) ([]Article, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	CountCategory(ctx context.Context, category string) (int64, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}

// Open creates a store of the given type. storageType is "sqlite" (dsn is
// a file path) or "postgres" (dsn is a connection string).
func Open(ctx context.Context, storageType, dsn string) (Store, error) {
	if dsn == "" {
		return nil, ErrMissingStorageDSN
	}

	switch storageType {
	case "", "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, storageType)
	}
}

// escapeLike escapes LIKE wildcards so category filters match literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return replacer.Replace(s)
}

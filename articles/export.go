package articles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Export formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// Export writes every stored article matching filter.Category to w, paging
// through the store. JSON output is a single indented array; JSONL writes
// one compact record per line.
func Export(ctx context.Context, store Store, w io.Writer, format string, filter Filter) (int, error) {
	if format != FormatJSON && format != FormatJSONL {
		return 0, fmt.Errorf("unsupported export format: %s", format)
	}

	filter.Limit = maxListLimit
	filter.Offset = 0

	var all []Article
	enc := json.NewEncoder(w)
	written := 0

	for {
		page, err := store.List(ctx, filter)
		if err != nil {
			return written, fmt.Errorf("failed to list articles: %w", err)
		}

		if format == FormatJSONL {
			for _, article := range page {
				if err := enc.Encode(article); err != nil {
					return written, fmt.Errorf("failed to write article: %w", err)
				}
				written++
			}
		} else {
			all = append(all, page...)
		}

		if len(page) < filter.Limit {
			break
		}
		filter.Offset += len(page)
	}

	if format == FormatJSONL {
		return written, nil
	}

	if all == nil {
		all = []Article{}
	}

	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return 0, fmt.Errorf("failed to write articles: %w", err)
	}

	return len(all), nil
}

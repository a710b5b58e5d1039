package snapshot

import (
	"context"
	"fmt"
	"strings"
)

// Open picks the repository from the URL scheme: postgres:// or
// postgresql:// use Postgres, sqlite://<path> uses a SQLite file.
func Open(ctx context.Context, databaseURL string) (Repository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgres(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("%w: missing sqlite path", ErrUnsupported)
		}
		return OpenSQLite(ctx, path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, scheme(databaseURL))
}

func scheme(u string) string {
	if s, _, ok := strings.Cut(u, "://"); ok {
		return s
	}
	return ""
}

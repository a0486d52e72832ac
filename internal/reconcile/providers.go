package reconcile

import (
	"context"
	"log/slog"
)

// Source is one place a query's remote-sourced slice can come from. Sources
// are tried in order, so adding or reordering fallbacks is a data change, not
// a code change.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context) ([]T, bool)
}

// firstAvailable walks the chain and returns the first answer, together with
// the name of the source that produced it. An exhausted chain returns nil,
// which callers treat as "remote slice empty" - the mirror still answers.
func firstAvailable[T any](ctx context.Context, logger *slog.Logger, sources []Source[T]) ([]T, string) {
	for _, src := range sources {
		if data, ok := src.Fetch(ctx); ok {
			return data, src.Name
		}
		if logger != nil {
			logger.DebugContext(ctx, "source exhausted", "source", src.Name)
		}
	}
	return nil, ""
}

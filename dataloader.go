package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

type dataLoaderContextKey string

const loaderKey dataLoaderContextKey = "dataloader"

// DataLoaders holds the per-request batched loaders. Match assembly and
// profile listings load user summaries through these so the surfaced
// candidates of one response collapse into a single users query.
type DataLoaders struct {
	Users *dataloader.Loader[int, *UserSummary]
}

// NewDataLoaders creates fresh loaders bound to the database connection.
func NewDataLoaders(db *sql.DB) *DataLoaders {
	return &DataLoaders{
		Users: dataloader.NewBatchedLoader(userBatchFn(db), dataloader.WithWait[int, *UserSummary](4*time.Millisecond)),
	}
}

func loadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(loaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

func withLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, loaderKey, dl)
}

// dataLoaderMiddleware injects fresh loaders into every request context so
// batching and caching never leak across requests.
func dataLoaderMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withLoaders(r.Context(), NewDataLoaders(db))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userBatchFn(db *sql.DB) dataloader.BatchFunc[int, *UserSummary] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[*UserSummary] {
		results := make([]*dataloader.Result[*UserSummary], len(keys))
		keyMap := make(map[int]int, len(keys)) // userID -> index in results
		for i, key := range keys {
			keyMap[key] = i
			results[i] = &dataloader.Result[*UserSummary]{}
		}
		if len(keys) == 0 {
			return results
		}

		placeholders := make([]string, len(keys))
		args := make([]interface{}, len(keys))
		for i, key := range keys {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = key
		}

		query := fmt.Sprintf(
			`SELECT id, email, role, is_verified FROM users WHERE id IN (%s)`,
			strings.Join(placeholders, ", "))

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			for i := range results {
				results[i].Error = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			return results
		}
		defer rows.Close()

		for rows.Next() {
			var u UserSummary
			if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.IsVerified); err != nil {
				for i := range results {
					if results[i].Data == nil && results[i].Error == nil {
						results[i].Error = err
					}
				}
				return results
			}
			if idx, ok := keyMap[u.ID]; ok {
				results[idx].Data = &u
			}
		}

		// Keys with no row stay as typed misses.
		for i := range results {
			if results[i].Data == nil && results[i].Error == nil {
				results[i].Error = ErrUserNotFound
			}
		}
		return results
	}
}

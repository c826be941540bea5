package typeloader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
)

// TypeLoader batches book type lookups issued while serving one request.
type TypeLoader struct {
	Loader *dataloader.Loader
}

func NewTypeLoader(repo repository.BookTypeRepository) *TypeLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// Convert keys to []int64
		ids := make([]int64, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				results := make([]*dataloader.Result, len(keys))
				for j := range results {
					results[j] = &dataloader.Result{Error: fmt.Errorf("invalid book type id %q: %w", k.String(), err)}
				}
				return results
			}
			ids[i] = id
		}

		types, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[int64]domain.BookType, len(types))
		for _, t := range types {
			byID[t.ID] = t
		}

		// Build results in the same order as keys
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if t, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: t}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("book type %d: %w", id, domain.ErrNotFound)}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))
	return &TypeLoader{Loader: loader}
}

// Load resolves a single book type, batching with concurrent callers.
func (l *TypeLoader) Load(ctx context.Context, id int64) (domain.BookType, error) {
	data, err := l.Loader.Load(ctx, dataloader.StringKey(strconv.FormatInt(id, 10)))()
	if err != nil {
		return domain.BookType{}, err
	}
	t, ok := data.(domain.BookType)
	if !ok {
		return domain.BookType{}, fmt.Errorf("unexpected book type payload %T", data)
	}
	return t, nil
}

// LoadMany resolves several book types keyed by id. Unknown ids are skipped.
func (l *TypeLoader) LoadMany(ctx context.Context, ids []int64) (map[int64]domain.BookType, error) {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = dataloader.StringKey(strconv.FormatInt(id, 10))
	}
	data, errs := l.Loader.LoadMany(ctx, keys)()

	out := make(map[int64]domain.BookType, len(ids))
	for i, d := range data {
		if len(errs) > i && errs[i] != nil {
			continue
		}
		if t, ok := d.(domain.BookType); ok {
			out[t.ID] = t
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ResolveNames fills in the type name of every book that lacks one, in a
// single batch.
func (l *TypeLoader) ResolveNames(ctx context.Context, books []domain.Book) error {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, b := range books {
		if b.TypeName != "" {
			continue
		}
		if _, ok := seen[b.TypeID]; ok {
			continue
		}
		seen[b.TypeID] = struct{}{}
		ids = append(ids, b.TypeID)
	}
	if len(ids) == 0 {
		return nil
	}
	types, err := l.LoadMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve book types: %w", err)
	}
	for i := range books {
		if t, ok := types[books[i].TypeID]; ok && books[i].TypeName == "" {
			books[i].TypeName = t.Name
		}
	}
	return nil
}

type ctxKey string

const typeLoaderKey ctxKey = "typeLoader"

// WithTypeLoader stores loader in ctx.
func WithTypeLoader(ctx context.Context, loader *TypeLoader) context.Context {
	return context.WithValue(ctx, typeLoaderKey, loader)
}

// FromContext retrieves the request's type loader, if any.
func FromContext(ctx context.Context) *TypeLoader {
	if l, ok := ctx.Value(typeLoaderKey).(*TypeLoader); ok {
		return l
	}
	return nil
}

// Package mutation runs the admin client's writes. A confirmed result is written straight
// into the query cache instead of triggering a refetch. Reorders are applied to the cache
// before the request is sent and rolled back if it fails.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/internal/client/querycache"
	"github.com/mindfulpath/practicesite/internal/client/request"
	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/pkg/logger"
	"github.com/mindfulpath/practicesite/pkg/metrics"
	"github.com/mindfulpath/practicesite/pkg/response"
)

// Doer issues HTTP calls. *request.Requester implements it.
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body any) (*request.Response, error)
}

var _ Doer = (*request.Requester)(nil)

// Config names the cache keys and endpoint of one ordered collection.
type Config struct {
	// ListKey caches the admin view of the collection.
	ListKey string
	// PublicKey, when set, caches the public view and is invalidated after a reorder.
	PublicKey string
	// Endpoint is the admin collection endpoint, e.g. /api/admin/testimonials.
	Endpoint string
	// Label names the entity in notices, e.g. "testimonials".
	Label string
}

// Option customises a Pipeline.
type Option func(*options)

type options struct {
	notifier Notifier
	log      *zap.Logger
}

// WithNotifier sets the receiver of failure notices.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger overrides the pipeline logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// UpdateInput carries an update request.
type UpdateInput struct {
	ID   int64
	Data any
}

// Hooks exposes the pipeline operations as Mutations.
type Hooks[T ordering.Entity[T]] struct {
	Create  *Mutation[any, T]
	Update  *Mutation[UpdateInput, T]
	Delete  *Mutation[int64, struct{}]
	Reorder *Mutation[[]ordering.Pair, []T]
}

// Pipeline applies create, update, delete and reorder to one cached collection. Mutations
// on one pipeline run one at a time.
type Pipeline[T ordering.Entity[T]] struct {
	cfg      Config
	doer     Doer
	store    *querycache.Store
	notifier Notifier
	log      *zap.Logger

	mu sync.Mutex
}

// NewPipeline builds a pipeline for cfg.
func NewPipeline[T ordering.Entity[T]](cfg Config, doer Doer, store *querycache.Store, opts ...Option) (*Pipeline[T], error) {
	if doer == nil {
		return nil, errors.New("mutation: doer is required")
	}
	if store == nil {
		return nil, errors.New("mutation: store is required")
	}
	if strings.TrimSpace(cfg.ListKey) == "" || strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("mutation: list key and endpoint are required")
	}
	if cfg.Label == "" {
		cfg.Label = cfg.ListKey
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	o := options{log: logger.WithModule("mutation")}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = LogNotifier{Log: o.log}
	}

	return &Pipeline[T]{
		cfg:      cfg,
		doer:     doer,
		store:    store,
		notifier: o.notifier,
		log:      o.log.With(zap.String("list", cfg.ListKey)),
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline[T]) Config() Config {
	return p.cfg
}

// List returns the cached collection, fetching it once when nothing is cached.
func (p *Pipeline[T]) List(ctx context.Context) ([]T, error) {
	return querycache.Load(ctx, p.store, p.cfg.ListKey, func(ctx context.Context) ([]T, error) {
		resp, err := p.doer.Do(ctx, http.MethodGet, p.cfg.Endpoint, nil)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := resp.Decode(&items); err != nil && !errors.Is(err, response.ErrNoData) {
			return nil, fmt.Errorf("decode %s: %w", p.cfg.Label, err)
		}
		return ordering.Sort(items), nil
	})
}

// Create posts data and, once confirmed, appends the returned entity to the cached list.
func (p *Pipeline[T]) Create(ctx context.Context, data any) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	resp, err := p.doer.Do(ctx, http.MethodPost, p.cfg.Endpoint, data)
	if err != nil {
		return zero, p.fail(OpCreate, err)
	}

	var created T
	if err := resp.Decode(&created); err != nil {
		return zero, p.fail(OpCreate, fmt.Errorf("decode response: %w", err))
	}

	querycache.Modify(p.store, p.cfg.ListKey, func(items []T) []T {
		next := make([]T, 0, len(items)+1)
		next = append(next, items...)
		next = append(next, created)
		return ordering.Sort(next)
	})
	p.succeed(OpCreate)
	return created, nil
}

// Update puts data and, once confirmed, replaces the matching cached entity. Other entities
// keep their identity.
func (p *Pipeline[T]) Update(ctx context.Context, id int64, data any) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	resp, err := p.doer.Do(ctx, http.MethodPut, p.itemEndpoint(id), data)
	if err != nil {
		return zero, p.fail(OpUpdate, err)
	}

	var updated T
	if err := resp.Decode(&updated); err != nil {
		return zero, p.fail(OpUpdate, fmt.Errorf("decode response: %w", err))
	}

	querycache.Modify(p.store, p.cfg.ListKey, func(items []T) []T {
		next := make([]T, len(items))
		moved := false
		for i, item := range items {
			if item.EntityID() == id {
				moved = item.Position() != updated.Position()
				item = updated
			}
			next[i] = item
		}
		if moved {
			return ordering.Sort(next)
		}
		return next
	})
	p.succeed(OpUpdate)
	return updated, nil
}

// Delete removes the entity on the server and, once confirmed, from the cached list.
func (p *Pipeline[T]) Delete(ctx context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.doer.Do(ctx, http.MethodDelete, p.itemEndpoint(id), nil); err != nil {
		return p.fail(OpDelete, err)
	}

	querycache.Modify(p.store, p.cfg.ListKey, func(items []T) []T {
		next := make([]T, 0, len(items))
		for _, item := range items {
			if item.EntityID() != id {
				next = append(next, item)
			}
		}
		return next
	})
	p.succeed(OpDelete)
	return nil
}

// Reorder applies pairs to the cached list immediately, then sends them. On success the
// server's authoritative list replaces the optimistic one when they differ, and the public
// view is invalidated. On failure the pre-reorder list is restored.
func (p *Pipeline[T]) Reorder(ctx context.Context, pairs []ordering.Pair) ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot, cached := querycache.Get[[]T](p.store, p.cfg.ListKey)
	var optimistic []T
	if cached {
		optimistic = ordering.Apply(snapshot, pairs)
		p.store.Write(p.cfg.ListKey, optimistic)
	}

	resp, err := p.doer.Do(ctx, http.MethodPut, p.cfg.Endpoint+"/reorder", pairs)
	if err != nil {
		if cached {
			p.store.Write(p.cfg.ListKey, snapshot)
		}
		return nil, p.fail(OpReorder, err)
	}

	final := optimistic
	var confirmed []T
	if err := resp.Decode(&confirmed); err == nil {
		authoritative := ordering.Sort(confirmed)
		switch {
		case !cached:
			final = authoritative
			p.store.Write(p.cfg.ListKey, final)
		case !ordering.SameSequence(optimistic, authoritative):
			metrics.ReorderDivergence.WithLabelValues(p.cfg.Label).Inc()
			p.log.Warn("server order differs from optimistic order",
				zap.Int64s("optimistic", ordering.IDs(optimistic)),
				zap.Int64s("server", ordering.IDs(authoritative)))
			final = authoritative
			p.store.Write(p.cfg.ListKey, final)
		case !ordering.Equal(optimistic, authoritative):
			final = authoritative
			p.store.Write(p.cfg.ListKey, final)
		}
	} else if !errors.Is(err, response.ErrNoData) {
		p.log.Warn("reorder response not decodable, keeping optimistic order", zap.Error(err))
	}

	if p.cfg.PublicKey != "" {
		p.store.Invalidate(p.cfg.PublicKey)
	}
	p.succeed(OpReorder)
	return final, nil
}

// Hooks exposes the operations as Mutations with pending flags and callbacks.
func (p *Pipeline[T]) Hooks() Hooks[T] {
	return Hooks[T]{
		Create: New(func(ctx context.Context, data any) (T, error) {
			return p.Create(ctx, data)
		}),
		Update: New(func(ctx context.Context, in UpdateInput) (T, error) {
			return p.Update(ctx, in.ID, in.Data)
		}),
		Delete: New(func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, p.Delete(ctx, id)
		}),
		Reorder: New(func(ctx context.Context, pairs []ordering.Pair) ([]T, error) {
			return p.Reorder(ctx, pairs)
		}),
	}
}

func (p *Pipeline[T]) itemEndpoint(id int64) string {
	return p.cfg.Endpoint + "/" + strconv.FormatInt(id, 10)
}

func (p *Pipeline[T]) succeed(op Op) {
	metrics.Mutations.WithLabelValues(p.cfg.Label, string(op), "success").Inc()
}

func (p *Pipeline[T]) fail(op Op, err error) error {
	metrics.Mutations.WithLabelValues(p.cfg.Label, string(op), "failure").Inc()
	mutErr := &Error{Op: op, Label: p.cfg.Label, Err: err}
	p.log.Warn("mutation failed", zap.String("op", string(op)), zap.Error(err))
	p.notifier.Notify(mutErr.Notice())
	return mutErr
}

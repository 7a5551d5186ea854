// Package admin assembles the admin client: one request layer, one query cache shared by
// every view, a mutation pipeline per ordered collection and the config store client.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/internal/app"
	"github.com/mindfulpath/practicesite/internal/app/maintenance"
	"github.com/mindfulpath/practicesite/internal/client/mutation"
	"github.com/mindfulpath/practicesite/internal/client/querycache"
	"github.com/mindfulpath/practicesite/internal/client/request"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/pkg/logger"
	"github.com/mindfulpath/practicesite/pkg/response"
)

// SweepJobName names the scheduled purge of stale GET responses.
const SweepJobName = "request_cache_sweep"

// Option customises a Client.
type Option func(*options)

type options struct {
	requestOpts []request.Option
	storeOpts   []querycache.Option
	notifier    mutation.Notifier
	log         *zap.Logger
}

// WithRequestOptions passes options to the request layer.
func WithRequestOptions(opts ...request.Option) Option {
	return func(o *options) {
		o.requestOpts = append(o.requestOpts, opts...)
	}
}

// WithStoreOptions passes options to the query cache.
func WithStoreOptions(opts ...querycache.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithNotifier sets the receiver of failure notices for every mutation.
func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithLogger overrides the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Client is the admin dashboard's data layer.
type Client struct {
	req   *request.Requester
	store *querycache.Store
	log   *zap.Logger

	// endpoints maps a query key to the GET that fills it. Read-only after New.
	endpoints map[string]string

	Testimonials *mutation.Pipeline[*models.Testimonial]
	Articles     *mutation.Pipeline[*models.Article]
	FAQ          *mutation.Pipeline[*models.FAQItem]
	Photos       *mutation.Pipeline[*models.Photo]
	Config       *ConfigClient
}

// FromConfig builds a Client from the client configuration section. opts are applied after
// the configured values.
func FromConfig(cfg app.ClientConfig, opts ...Option) (*Client, error) {
	requestOpts := []request.Option{
		request.WithTTL(cfg.RequestCache.TTL),
		request.WithMaxEntries(cfg.RequestCache.MaxEntries),
	}
	if cfg.Timeout > 0 {
		requestOpts = append(requestOpts, request.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	base := []Option{
		WithRequestOptions(requestOpts...),
		WithStoreOptions(querycache.WithMaxEntries(cfg.Cache.MaxEntries)),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// New builds a Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	o := options{log: logger.WithModule("admin-client")}
	for _, opt := range opts {
		opt(&o)
	}

	req, err := request.New(baseURL, append([]request.Option{request.WithLogger(o.log.Named("request"))}, o.requestOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("admin client: %w", err)
	}
	store := querycache.New(append([]querycache.Option{querycache.WithLogger(o.log.Named("querycache"))}, o.storeOpts...)...)

	c := &Client{
		req:   req,
		store: store,
		log:   o.log,
		endpoints: map[string]string{
			ConfigKey:       configEndpoint,
			PublicConfigKey: publicConfigEndpoint,
		},
	}

	pipelineOpts := []mutation.Option{
		mutation.WithNotifier(o.notifier),
		mutation.WithLogger(o.log.Named("mutation")),
	}
	if c.Testimonials, err = newPipeline[*models.Testimonial](c, Testimonials, pipelineOpts); err != nil {
		return nil, err
	}
	if c.Articles, err = newPipeline[*models.Article](c, Articles, pipelineOpts); err != nil {
		return nil, err
	}
	if c.FAQ, err = newPipeline[*models.FAQItem](c, FAQ, pipelineOpts); err != nil {
		return nil, err
	}
	if c.Photos, err = newPipeline[*models.Photo](c, Photos, pipelineOpts); err != nil {
		return nil, err
	}
	c.Config = newConfigClient(req, store, o.notifier, o.log.Named("config"))

	// An invalidated query refetches from the server, not from a fresh GET response. The
	// hook also runs for keys that were evicted or are still loading.
	store.OnInvalidate(func(key string) {
		if endpoint, ok := c.endpoints[key]; ok {
			c.req.Forget(endpoint)
		}
	})

	return c, nil
}

func newPipeline[T ordering.Entity[T]](c *Client, r Resource, opts []mutation.Option) (*mutation.Pipeline[T], error) {
	c.endpoints[r.AdminKey()] = r.AdminEndpoint()
	c.endpoints[r.PublicKey()] = r.PublicEndpoint()

	p, err := mutation.NewPipeline[T](mutation.Config{
		ListKey:   r.AdminKey(),
		PublicKey: r.PublicKey(),
		Endpoint:  r.AdminEndpoint(),
		Label:     string(r),
	}, c.req, c.store, opts...)
	if err != nil {
		return nil, fmt.Errorf("admin client: %s pipeline: %w", r, err)
	}
	return p, nil
}

// Store returns the query cache shared by every view.
func (c *Client) Store() *querycache.Store {
	return c.store
}

// Requester returns the request layer.
func (c *Client) Requester() *request.Requester {
	return c.req
}

// Refresh drops the named queries so their next read goes to the server.
func (c *Client) Refresh(keys ...string) {
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		c.store.Invalidate(key)
	}
}

// Scheduler returns a scheduler that purges stale GET responses on schedule.
func (c *Client) Scheduler(schedule string, opts ...maintenance.Option) *maintenance.Scheduler {
	return maintenance.NewScheduler([]maintenance.Job{{
		Name:     SweepJobName,
		Schedule: schedule,
		Run:      c.req.PurgeJob,
	}}, append([]maintenance.Option{maintenance.WithLogger(c.log.Named("maintenance"))}, opts...)...)
}

// PublicList returns the public view of r: active entities in display order, cached under
// r.PublicKey until a reorder invalidates it. T must be the entity type of r.
func PublicList[T ordering.Entity[T]](ctx context.Context, c *Client, r Resource) ([]T, error) {
	if c == nil {
		return nil, errors.New("admin client: nil client")
	}
	return querycache.Load(ctx, c.store, r.PublicKey(), func(ctx context.Context) ([]T, error) {
		resp, err := c.req.Get(ctx, r.PublicEndpoint())
		if err != nil {
			return nil, err
		}
		var items []T
		if err := resp.Decode(&items); err != nil && !errors.Is(err, response.ErrNoData) {
			return nil, fmt.Errorf("decode %s: %w", r, err)
		}
		return ordering.Visible(ordering.Sort(items)), nil
	})
}

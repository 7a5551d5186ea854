package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/internal/client/mutation"
	"github.com/mindfulpath/practicesite/internal/client/querycache"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
	"github.com/mindfulpath/practicesite/pkg/metrics"
	"github.com/mindfulpath/practicesite/pkg/response"
)

const configLabel = "config"

// SaveInput is one upsert of the config store.
type SaveInput struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ConfigHooks exposes the config writes as Mutations.
type ConfigHooks struct {
	Save   *mutation.Mutation[SaveInput, siteconfig.Entry]
	Delete *mutation.Mutation[string, struct{}]
}

// ConfigClient reads and writes the key/value content store. Confirmed writes go straight
// into the cached admin list; the public list is invalidated so the site refetches it.
type ConfigClient struct {
	doer     mutation.Doer
	store    *querycache.Store
	notifier mutation.Notifier
	log      *zap.Logger

	mu sync.Mutex
}

func newConfigClient(doer mutation.Doer, store *querycache.Store, notifier mutation.Notifier, log *zap.Logger) *ConfigClient {
	if notifier == nil {
		notifier = mutation.LogNotifier{Log: log}
	}
	return &ConfigClient{doer: doer, store: store, notifier: notifier, log: log}
}

// Entries returns the admin config list, fetching it once.
func (c *ConfigClient) Entries(ctx context.Context) ([]siteconfig.Entry, error) {
	return c.load(ctx, ConfigKey, configEndpoint)
}

// PublicEntries returns the config list the public site renders from.
func (c *ConfigClient) PublicEntries(ctx context.Context) ([]siteconfig.Entry, error) {
	return c.load(ctx, PublicConfigKey, publicConfigEndpoint)
}

func (c *ConfigClient) load(ctx context.Context, key, endpoint string) ([]siteconfig.Entry, error) {
	return querycache.Load(ctx, c.store, key, func(ctx context.Context) ([]siteconfig.Entry, error) {
		resp, err := c.doer.Do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		var entries []siteconfig.Entry
		if err := resp.Decode(&entries); err != nil && !errors.Is(err, response.ErrNoData) {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		return entries, nil
	})
}

// Section returns the typed value stored under key, with missing subfields defaulted. A key
// absent from the store yields its defaults together with siteconfig.ErrNotFound.
func Section[T siteconfig.Section](ctx context.Context, c *ConfigClient, key siteconfig.Key) (T, error) {
	var zero T
	entries, err := c.Entries(ctx)
	if err != nil {
		return zero, err
	}
	return siteconfig.Lookup[T](entries, key)
}

// Save upserts value under key. Create and update are the same call.
func (c *ConfigClient) Save(ctx context.Context, key string, value any) (siteconfig.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key = strings.TrimSpace(key)
	if key == "" {
		return siteconfig.Entry{}, c.fail(mutation.OpSave, key, errors.New("key is required"))
	}

	resp, err := c.doer.Do(ctx, http.MethodPost, configEndpoint, SaveInput{Key: key, Value: value})
	if err != nil {
		return siteconfig.Entry{}, c.fail(mutation.OpSave, key, err)
	}

	var saved siteconfig.Entry
	if err := resp.Decode(&saved); err != nil {
		return siteconfig.Entry{}, c.fail(mutation.OpSave, key, fmt.Errorf("decode response: %w", err))
	}

	querycache.Modify(c.store, ConfigKey, func(entries []siteconfig.Entry) []siteconfig.Entry {
		next := make([]siteconfig.Entry, 0, len(entries)+1)
		replaced := false
		for _, entry := range entries {
			if sameKey(entry.Key, saved.Key) {
				entry = saved
				replaced = true
			}
			next = append(next, entry)
		}
		if !replaced {
			next = append(next, saved)
		}
		return next
	})
	c.store.Invalidate(PublicConfigKey)
	c.succeed(mutation.OpSave)
	return saved, nil
}

// SaveSection validates section locally and saves it under its own key.
func (c *ConfigClient) SaveSection(ctx context.Context, section siteconfig.Section) (siteconfig.Entry, error) {
	if section == nil {
		return siteconfig.Entry{}, errors.New("config: nil section")
	}
	if err := siteconfig.Validate(section); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return siteconfig.Entry{}, c.fail(mutation.OpSave, string(section.Key()), err)
	}
	return c.Save(ctx, string(section.Key()), section)
}

// Delete removes an optional section such as the avatar.
func (c *ConfigClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key = strings.TrimSpace(key)
	if key == "" {
		return c.fail(mutation.OpDelete, key, errors.New("key is required"))
	}

	if _, err := c.doer.Do(ctx, http.MethodDelete, configEndpoint+"/"+url.PathEscape(key), nil); err != nil {
		return c.fail(mutation.OpDelete, key, err)
	}

	querycache.Modify(c.store, ConfigKey, func(entries []siteconfig.Entry) []siteconfig.Entry {
		next := make([]siteconfig.Entry, 0, len(entries))
		for _, entry := range entries {
			if !sameKey(entry.Key, key) {
				next = append(next, entry)
			}
		}
		return next
	})
	c.store.Invalidate(PublicConfigKey)
	c.succeed(mutation.OpDelete)
	return nil
}

// Hooks exposes Save and Delete as Mutations with pending flags and callbacks.
func (c *ConfigClient) Hooks() ConfigHooks {
	return ConfigHooks{
		Save: mutation.New(func(ctx context.Context, in SaveInput) (siteconfig.Entry, error) {
			return c.Save(ctx, in.Key, in.Value)
		}),
		Delete: mutation.New(func(ctx context.Context, key string) (struct{}, error) {
			return struct{}{}, c.Delete(ctx, key)
		}),
	}
}

func (c *ConfigClient) succeed(op mutation.Op) {
	metrics.Mutations.WithLabelValues(configLabel, string(op), "success").Inc()
}

func (c *ConfigClient) fail(op mutation.Op, key string, err error) error {
	metrics.Mutations.WithLabelValues(configLabel, string(op), "failure").Inc()
	label := strings.ReplaceAll(key, "_", " ")
	if label == "" {
		label = configLabel
	}
	mutErr := &mutation.Error{Op: op, Label: label, Err: err}
	c.log.Warn("config mutation failed", zap.String("op", string(op)), zap.String("key", key), zap.Error(err))
	c.notifier.Notify(mutErr.Notice())
	return mutErr
}

func sameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Package request issues the admin client's HTTP calls. Successful GET responses are kept
// for a short freshness window, and identical GETs that are in flight at the same time share
// one network call. Other methods always reach the server.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mindfulpath/practicesite/pkg/logger"
	"github.com/mindfulpath/practicesite/pkg/metrics"
	"github.com/mindfulpath/practicesite/pkg/response"
)

const (
	// DefaultTTL is how long a cached GET response is served without a network call.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries bounds the GET cache; the oldest-inserted entry goes first.
	DefaultMaxEntries = 100

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "practicesite-admin/1.0"
)

// Response is a completed HTTP exchange. Body must be treated as read-only: cached and
// shared responses hand the same bytes to every caller.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// Cached is set when the response came from the GET cache.
	Cached bool
	// Shared is set when the response came from a call issued by a concurrent caller.
	Shared bool
}

// Envelope parses the standard API envelope from the body.
func (r *Response) Envelope() (response.Envelope, error) {
	return response.ParseEnvelope(r.Body)
}

// Decode unmarshals the envelope data into dest.
func (r *Response) Decode(dest any) error {
	env, err := r.Envelope()
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return env.Decode(dest)
}

type cachedResponse struct {
	resp     *Response
	storedAt time.Time
}

// Option configures a Requester.
type Option func(*Requester)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Requester) {
		if client != nil {
			r.http = client
		}
	}
}

// WithTTL sets the GET freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Requester) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxEntries sets the GET cache ceiling.
func WithMaxEntries(n int) Option {
	return func(r *Requester) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(r *Requester) {
		if key != "" {
			r.headers.Set(key, value)
		}
	}
}

// WithLogger overrides the requester logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Requester) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(r *Requester) {
		if now != nil {
			r.now = now
		}
	}
}

// Requester performs HTTP calls against one API base URL.
type Requester struct {
	base       string
	http       *http.Client
	headers    http.Header
	ttl        time.Duration
	maxEntries int

	mu    sync.Mutex
	cache map[string]cachedResponse
	order []string
	// epoch advances on every Forget. A GET issued under an older epoch is not cached and
	// is not joined by later callers.
	epoch uint64

	group singleflight.Group
	log   *zap.Logger
	now   func() time.Time
}

// New builds a Requester for baseURL.
func New(baseURL string, opts ...Option) (*Requester, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}

	r := &Requester{
		base:       strings.TrimRight(parsed.String(), "/"),
		http:       &http.Client{Timeout: defaultTimeout},
		headers:    make(http.Header),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		cache:      make(map[string]cachedResponse),
		log:        logger.WithModule("request"),
		now:        time.Now,
	}
	r.headers.Set("User-Agent", defaultUserAgent)

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Do issues method against endpoint. body may be nil, raw bytes or any JSON-encodable
// value. GETs are answered from the cache while fresh and de-duplicated while in flight.
// A caller whose ctx ends stops waiting, but a shared call keeps running for the others.
func (r *Requester) Do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	method = strings.ToUpper(method)
	target := r.resolve(endpoint)

	payload, err := encodeBody(body)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Err: err}
	}

	if method != http.MethodGet {
		return r.send(ctx, method, target, payload)
	}

	key := cacheKey(method, target, payload)
	if resp, ok := r.lookup(key); ok {
		metrics.RequestCache.WithLabelValues("hit").Inc()
		r.log.Debug("request cache hit", zap.String("url", target))
		return resp, nil
	}

	epoch := r.currentEpoch()
	ch := r.group.DoChan(key+"#"+strconv.FormatUint(epoch, 10), func() (any, error) {
		resp, err := r.send(context.WithoutCancel(ctx), method, target, payload)
		if err != nil {
			return nil, err
		}
		r.store(key, epoch, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.RequestCache.WithLabelValues("shared").Inc()
		} else {
			metrics.RequestCache.WithLabelValues("miss").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		resp := *res.Val.(*Response)
		resp.Shared = res.Shared
		return &resp, nil
	}
}

// Get is shorthand for a GET without a body.
func (r *Requester) Get(ctx context.Context, endpoint string) (*Response, error) {
	return r.Do(ctx, http.MethodGet, endpoint, nil)
}

// Forget drops every cached GET for endpoint regardless of freshness. GETs already in
// flight complete for their callers but are not cached.
func (r *Requester) Forget(endpoint string) int {
	prefix := cacheKey(http.MethodGet, r.resolve(endpoint), nil)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	removed := 0
	for key := range r.cache {
		if strings.HasPrefix(key, prefix) {
			r.removeLocked(key)
			removed++
		}
	}
	if removed > 0 {
		metrics.RequestCacheEvictions.WithLabelValues("forget").Add(float64(removed))
	}
	return removed
}

// Purge drops cached GETs older than the freshness window.
func (r *Requester) Purge() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, entry := range r.cache {
		if now.Sub(entry.storedAt) >= r.ttl {
			r.removeLocked(key)
			removed++
		}
	}
	if removed > 0 {
		metrics.RequestCacheEvictions.WithLabelValues("expired").Add(float64(removed))
		r.log.Debug("request cache purged", zap.Int("removed", removed))
	}
	return removed
}

// PurgeJob adapts Purge to a scheduled job.
func (r *Requester) PurgeJob(context.Context) error {
	r.Purge()
	return nil
}

// Len reports how many GET responses are cached.
func (r *Requester) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Requester) lookup(key string) (*Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[key]
	if !ok || r.now().Sub(entry.storedAt) >= r.ttl {
		return nil, false
	}
	resp := *entry.resp
	resp.Cached = true
	resp.Shared = false
	return &resp, true
}

func (r *Requester) currentEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

func (r *Requester) store(key string, epoch uint64, resp *Response) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != r.epoch {
		r.log.Debug("request cache skipped forgotten response", zap.String("key", key))
		return
	}

	if _, exists := r.cache[key]; exists {
		r.removeLocked(key)
	}
	r.cache[key] = cachedResponse{resp: resp, storedAt: r.now()}
	r.order = append(r.order, key)

	for len(r.order) > r.maxEntries {
		oldest := r.order[0]
		r.removeLocked(oldest)
		metrics.RequestCacheEvictions.WithLabelValues("ceiling").Inc()
		r.log.Debug("request cache evicted", zap.String("key", oldest))
	}
}

func (r *Requester) removeLocked(key string) {
	delete(r.cache, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *Requester) send(ctx context.Context, method, target string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range r.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &Error{Method: method, URL: target, Status: resp.StatusCode, Body: body}
		if env, parseErr := response.ParseEnvelope(body); parseErr == nil && env.Error != nil {
			reqErr.Code = env.Error.Code
			reqErr.Message = env.Error.Message
		}
		r.log.Debug("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode))
		return nil, reqErr
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

func (r *Requester) resolve(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return r.base + "/" + strings.TrimLeft(endpoint, "/")
}

func cacheKey(method, target string, payload []byte) string {
	return method + " " + target + " " + string(payload)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		return payload, nil
	}
}

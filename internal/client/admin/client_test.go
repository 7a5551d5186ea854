package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mindfulpath/practicesite/internal/api"
	"github.com/mindfulpath/practicesite/internal/app"
	"github.com/mindfulpath/practicesite/internal/client/admin"
	"github.com/mindfulpath/practicesite/internal/client/mutation"
	"github.com/mindfulpath/practicesite/internal/client/querycache"
	"github.com/mindfulpath/practicesite/internal/client/request"
	"github.com/mindfulpath/practicesite/internal/database/testutil"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
)

// counter tallies requests per method and path.
type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.calls[r.Method+" "+r.URL.Path]++
		c.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (c *counter) get(method, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method+" "+path]
}

type harness struct {
	server   *httptest.Server
	client   *admin.Client
	services *api.Services
	calls    *counter
	notices  *[]mutation.Notice
}

type harnessOptions struct {
	cacheEntries int
	wrap         func(http.Handler) http.Handler
}

type harnessOption func(*harnessOptions)

func withCacheEntries(n int) harnessOption {
	return func(o *harnessOptions) { o.cacheEntries = n }
}

func withHandler(wrap func(http.Handler) http.Handler) harnessOption {
	return func(o *harnessOptions) { o.wrap = wrap }
}

func newHarness(t *testing.T, opts ...harnessOption) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := harnessOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	cfg := &app.Config{
		Server:   app.ServerConfig{Port: 8000},
		Database: app.DatabaseConfig{Driver: "sqlite"},
	}
	svcs, err := api.NewServices(db)
	require.NoError(t, err)
	router, err := api.NewRouter(db, cfg, svcs, nil)
	require.NoError(t, err)

	calls := &counter{calls: make(map[string]int)}
	var handler http.Handler = router
	if o.wrap != nil {
		handler = o.wrap(handler)
	}
	server := httptest.NewServer(calls.wrap(handler))
	t.Cleanup(server.Close)

	var (
		mu      sync.Mutex
		notices []mutation.Notice
	)
	client, err := admin.FromConfig(app.ClientConfig{
		BaseURL:      server.URL,
		RequestCache: app.RequestCacheConfig{MaxEntries: 100},
		Cache:        app.QueryCacheConfig{MaxEntries: o.cacheEntries},
	}, admin.WithNotifier(mutation.NotifierFunc(func(n mutation.Notice) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	})))
	require.NoError(t, err)

	return harness{server: server, client: client, services: svcs, calls: calls, notices: &notices}
}

func TestConcurrentConfigReadsShareOneCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][]siteconfig.Entry, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.client.Config.PublicEntries(ctx)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, len(results[0]), len(results[i]))
	}
	require.NotEmpty(t, results[0])
	require.Equal(t, 1, h.calls.get(http.MethodGet, "/api/config"))
}

func TestSaveWritesAdminListAndRefreshesPublicList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Config.Entries(ctx)
	require.NoError(t, err)
	_, err = h.client.Config.PublicEntries(ctx)
	require.NoError(t, err)

	saved, err := h.client.Config.SaveSection(ctx, &siteconfig.Hero{Title: "Find your footing"})
	require.NoError(t, err)
	require.Equal(t, string(siteconfig.KeyHero), saved.Key)

	hero, err := admin.Section[*siteconfig.Hero](ctx, h.client.Config, siteconfig.KeyHero)
	require.NoError(t, err)
	require.Equal(t, "Find your footing", hero.Title)
	require.Equal(t, 1, h.calls.get(http.MethodGet, "/api/admin/config"), "admin list is written, not refetched")

	_, cached := h.client.Store().Read(admin.PublicConfigKey)
	require.False(t, cached)

	public, err := h.client.Config.PublicEntries(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/config"), "public list refetched past the request cache")

	publicHero, err := siteconfig.Lookup[*siteconfig.Hero](public, siteconfig.KeyHero)
	require.NoError(t, err)
	require.Equal(t, "Find your footing", publicHero.Title)
}

func TestSaveAppendsNewKeyAndDeleteRemovesIt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before, err := h.client.Config.Entries(ctx)
	require.NoError(t, err)

	_, err = h.client.Config.Save(ctx, string(siteconfig.KeyAvatar), map[string]any{
		"url": "https://example.com/portrait.jpg",
	})
	require.NoError(t, err)

	entries, err := h.client.Config.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(before)+1)

	avatar, err := admin.Section[*siteconfig.Avatar](ctx, h.client.Config, siteconfig.KeyAvatar)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/portrait.jpg", avatar.URL)

	require.NoError(t, h.client.Config.Delete(ctx, string(siteconfig.KeyAvatar)))
	entries, err = h.client.Config.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(before))

	_, err = admin.Section[*siteconfig.Avatar](ctx, h.client.Config, siteconfig.KeyAvatar)
	require.ErrorIs(t, err, siteconfig.ErrNotFound)
}

func TestSaveRejectedByServerLeavesCacheAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before, err := h.client.Config.Entries(ctx)
	require.NoError(t, err)

	_, err = h.client.Config.Save(ctx, "not_a_section", map[string]any{"x": 1})
	require.Error(t, err)

	var mutErr *mutation.Error
	require.ErrorAs(t, err, &mutErr)
	require.Equal(t, mutation.OpSave, mutErr.Op)
	reqErr, ok := request.AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, reqErr.Status)

	after, err := h.client.Config.Entries(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.Len(t, *h.notices, 1)
	require.Equal(t, "Failed to save not a section. Please try again.", (*h.notices)[0].Message)
	require.NotEmpty(t, (*h.notices)[0].Detail)
}

func TestSaveSectionValidatesLocally(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Config.SaveSection(context.Background(), &siteconfig.Hero{})
	require.Error(t, err)
	require.Zero(t, h.calls.get(http.MethodPost, "/api/admin/config"))
	require.Len(t, *h.notices, 1)
}

func TestCollectionLifecycleAgainstServer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	faq := h.client.FAQ

	items, err := faq.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	var ids []int64
	for _, q := range []string{"How long is a session?", "Do you offer telehealth?", "What does it cost?"} {
		created, err := faq.Create(ctx, map[string]any{"question": q, "answer": "See the contact page."})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	items, err = faq.List(ctx)
	require.NoError(t, err)
	require.Equal(t, ids, ordering.IDs(items))
	require.Equal(t, 1, h.calls.get(http.MethodGet, "/api/admin/faq"))

	public, err := admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
	require.NoError(t, err)
	require.Equal(t, ids, ordering.IDs(public))

	reordered, err := faq.Reorder(ctx, []ordering.Pair{{ID: ids[2], Order: 0}})
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, ordering.IDs(reordered))
	for i, item := range reordered {
		require.Equal(t, i, item.Order)
	}

	_, cached := h.client.Store().Read(admin.FAQ.PublicKey())
	require.False(t, cached)
	public, err = admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, ordering.IDs(public))
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/faq"))

	updated, err := faq.Update(ctx, ids[0], map[string]any{"isActive": false})
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	require.NoError(t, faq.Delete(ctx, ids[1]))
	items, err = faq.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0]}, ordering.IDs(items))
	require.Equal(t, 1, h.calls.get(http.MethodGet, "/api/admin/faq"))
}

func TestReorderAgainstUnreachableServerRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	photos := h.client.Photos

	_, err := photos.List(ctx)
	require.NoError(t, err)
	for _, url := range []string{"https://example.com/1.jpg", "https://example.com/2.jpg"} {
		_, err := photos.Create(ctx, map[string]any{"url": url, "altText": "Office"})
		require.NoError(t, err)
	}
	before, ok := querycache.Get[[]*models.Photo](h.client.Store(), admin.Photos.AdminKey())
	require.True(t, ok)

	h.server.Close()

	_, err = photos.Reorder(ctx, []ordering.Pair{{ID: before[1].ID, Order: 0}})
	require.Error(t, err)
	reqErr, ok := request.AsError(err)
	require.True(t, ok)
	require.True(t, reqErr.IsNetwork())

	after, ok := querycache.Get[[]*models.Photo](h.client.Store(), admin.Photos.AdminKey())
	require.True(t, ok)
	require.Equal(t, ordering.IDs(before), ordering.IDs(after))
	require.Len(t, *h.notices, 1)
	require.Equal(t, "The server could not be reached.", (*h.notices)[0].Detail)
}

func TestRefreshForgetsResponses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Testimonials.List(ctx)
	require.NoError(t, err)
	h.client.Refresh(admin.Testimonials.AdminKey())
	_, err = h.client.Testimonials.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/admin/testimonials"))
}

func TestSchedulerPurgesRequestCache(t *testing.T) {
	h := newHarness(t)

	sched := h.client.Scheduler("@every 1m")
	jobs := sched.Jobs()
	require.Len(t, jobs, 1)
	require.Equal(t, admin.SweepJobName, jobs[0].Name)
	require.NoError(t, sched.RunOnce(context.Background()))
}

func TestParseResource(t *testing.T) {
	r, err := admin.ParseResource(" FAQ ")
	require.NoError(t, err)
	require.Equal(t, admin.FAQ, r)
	require.Equal(t, "/api/admin/faq", r.AdminEndpoint())
	require.Equal(t, "public/faq", r.PublicKey())

	_, err = admin.ParseResource("invoices")
	require.Error(t, err)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := admin.New("not a url")
	require.Error(t, err)
}

func seedFAQ(t *testing.T, h harness) []int64 {
	t.Helper()
	var ids []int64
	for _, q := range []string{"First visit?", "Cancellations?", "Insurance?"} {
		item := models.NewFAQItem()
		item.Question = q
		item.Answer = "Ask at reception."
		created, err := h.services.FAQ.Create(context.Background(), item, true)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	return ids
}

func TestReorderRefreshesEvictedPublicList(t *testing.T) {
	h := newHarness(t, withCacheEntries(1))
	ctx := context.Background()
	ids := seedFAQ(t, h)

	public, err := admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
	require.NoError(t, err)
	require.Equal(t, ids, ordering.IDs(public))

	// Loading the admin list evicts the public list from the one-entry store while the
	// request layer still holds a fresh GET /api/faq.
	_, err = h.client.FAQ.List(ctx)
	require.NoError(t, err)
	_, cached := h.client.Store().Read(admin.FAQ.PublicKey())
	require.False(t, cached)

	_, err = h.client.FAQ.Reorder(ctx, []ordering.Pair{{ID: ids[2], Order: 0}})
	require.NoError(t, err)

	public, err = admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, ordering.IDs(public))
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/faq"))
}

func TestReorderOvertakesPublicListInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var held atomic.Bool

	// The first GET /api/faq is answered by the router, then held before it is written
	// back, so the rows it carries predate the reorder.
	hold := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/faq" || !held.CompareAndSwap(false, true) {
				next.ServeHTTP(w, r)
				return
			}
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			close(entered)
			<-release
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	}

	h := newHarness(t, withHandler(hold))
	ctx := context.Background()
	ids := seedFAQ(t, h)

	_, err := h.client.FAQ.List(ctx)
	require.NoError(t, err)

	stale := make(chan []int64, 1)
	go func() {
		items, err := admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
		if err == nil {
			stale <- ordering.IDs(items)
		}
		close(stale)
	}()
	<-entered

	_, err = h.client.FAQ.Reorder(ctx, []ordering.Pair{{ID: ids[2], Order: 0}})
	require.NoError(t, err)

	close(release)
	first, ok := <-stale
	require.True(t, ok)
	require.Equal(t, ids, first)

	public, err := admin.PublicList[*models.FAQItem](ctx, h.client, admin.FAQ)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, ordering.IDs(public))
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/faq"))
}

func TestSaveRefreshesPublicConfigNotYetCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Fill the request cache without caching the query.
	_, err := h.client.Requester().Get(ctx, "/api/config")
	require.NoError(t, err)

	_, err = h.client.Config.SaveSection(ctx, &siteconfig.Hero{Title: "Steady steps"})
	require.NoError(t, err)

	public, err := h.client.Config.PublicEntries(ctx)
	require.NoError(t, err)
	hero, err := siteconfig.Lookup[*siteconfig.Hero](public, siteconfig.KeyHero)
	require.NoError(t, err)
	require.Equal(t, "Steady steps", hero.Title)
	require.Equal(t, 2, h.calls.get(http.MethodGet, "/api/config"))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindfulpath/practicesite/internal/database/testutil"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/ordering"
)

func newFAQService(t *testing.T) *CollectionService[*models.FAQItem] {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewCollectionService(db, "faq", models.NewFAQItem)
	require.NoError(t, err)
	return svc
}

func seedFAQ(t *testing.T, svc *CollectionService[*models.FAQItem], questions ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		item := models.NewFAQItem()
		item.Question = q
		item.Answer = "Answer to " + q
		created, err := svc.Create(context.Background(), item, true)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	return ids
}

func TestCollectionService_CreateAppendsToEnd(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "first", "second")

	items, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, ids, ordering.IDs(items))
	require.Equal(t, 0, items[0].Order)
	require.Equal(t, 1, items[1].Order)
}

func TestCollectionService_CreateKeepsExplicitOrderAndIgnoresClientID(t *testing.T) {
	svc := newFAQService(t)
	seedFAQ(t, svc, "a", "b")

	item := models.NewFAQItem()
	item.ID = 999
	item.Order = 0
	item.Question = "pinned"
	item.Answer = "top"
	created, err := svc.Create(context.Background(), item, false)
	require.NoError(t, err)
	require.NotEqual(t, int64(999), created.ID)
	require.Equal(t, 0, created.Order)
}

func TestCollectionService_CreateValidates(t *testing.T) {
	svc := newFAQService(t)

	_, err := svc.Create(context.Background(), models.NewFAQItem(), true)
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestCollectionService_ReorderMovesToFront(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "one", "two", "three")

	ranked, err := svc.Reorder(context.Background(), []ordering.Pair{{ID: ids[2], Order: 0}})
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, ordering.IDs(ranked))
	for i, item := range ranked {
		require.Equal(t, i, item.Order)
	}

	stored, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.True(t, ordering.Equal(ranked, stored))
}

func TestCollectionService_ReorderIsIdempotent(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "a", "b", "c", "d")
	pairs := []ordering.Pair{
		{ID: ids[3], Order: 0},
		{ID: ids[2], Order: 1},
		{ID: ids[1], Order: 1},
		{ID: ids[0], Order: 2},
	}

	first, err := svc.Reorder(context.Background(), pairs)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[3], ids[2], ids[1], ids[0]}, ordering.IDs(first))

	second, err := svc.Reorder(context.Background(), pairs)
	require.NoError(t, err)
	require.True(t, ordering.Equal(first, second))
}

func TestCollectionService_ReorderRejectsBadInput(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "a")

	_, err := svc.Reorder(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidReorder)

	_, err = svc.Reorder(context.Background(), []ordering.Pair{{ID: ids[0], Order: 0}, {ID: 404, Order: 1}})
	require.ErrorIs(t, err, ErrItemNotFound)

	items, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 0, items[0].Order)
}

func TestCollectionService_UpdateKeepsIdentity(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "a")

	updated, err := svc.Update(context.Background(), ids[0], func(item *models.FAQItem) error {
		item.Answer = "changed"
		item.IsActive = false
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "changed", updated.Answer)
	require.False(t, updated.IsActive)

	_, err = svc.Update(context.Background(), ids[0], func(item *models.FAQItem) error {
		item.ID = 77
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.Update(context.Background(), 12345, nil)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestCollectionService_ListActiveOnly(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "a", "b", "c")

	_, err := svc.Update(context.Background(), ids[1], func(item *models.FAQItem) error {
		item.IsActive = false
		return nil
	})
	require.NoError(t, err)

	visible, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[0], ids[2]}, ordering.IDs(visible))
}

func TestCollectionService_DeleteAndCompact(t *testing.T) {
	svc := newFAQService(t)
	ids := seedFAQ(t, svc, "a", "b", "c")

	require.NoError(t, svc.Delete(context.Background(), ids[0]))
	require.ErrorIs(t, svc.Delete(context.Background(), ids[0]), ErrItemNotFound)

	moved, err := svc.Compact(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, moved)

	items, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[1], ids[2]}, ordering.IDs(items))
	require.Equal(t, 0, items[0].Order)
	require.Equal(t, 1, items[1].Order)

	moved, err = svc.Compact(context.Background())
	require.NoError(t, err)
	require.Zero(t, moved)
}

func TestCollectionService_ArticleSlugConflict(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewCollectionService(db, "articles", models.NewArticle)
	require.NoError(t, err)

	newArticle := func(slug string) *models.Article {
		a := models.NewArticle()
		a.Title = "Managing anxiety"
		a.Slug = slug
		return a
	}

	_, err = svc.Create(context.Background(), newArticle("managing-anxiety"), true)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), newArticle("managing-anxiety"), true)
	require.ErrorIs(t, err, ErrItemConflict)

	_, err = svc.Create(context.Background(), newArticle("Not A Slug"), true)
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestCollectionService_PublicFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, err := NewCollectionService(db, "articles", models.NewArticle,
		WithPublicFilter(func(a *models.Article) bool { return a.Published(now) }))
	require.NoError(t, err)

	past := now.Add(-24 * time.Hour)
	published := models.NewArticle()
	published.Title, published.Slug, published.PublishedAt = "Live", "live", &past
	draft := models.NewArticle()
	draft.Title, draft.Slug = "Draft", "draft"

	_, err = svc.Create(context.Background(), published, true)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), draft, true)
	require.NoError(t, err)

	public, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, "live", public[0].Slug)

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestNewCollectionServiceRequiresDependencies(t *testing.T) {
	_, err := NewCollectionService[*models.Photo](nil, "photos", models.NewPhoto)
	require.Error(t, err)
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/pkg/logger"
	appValidator "github.com/mindfulpath/practicesite/pkg/validator"
)

// Record is satisfied by pointers to every sortable content model.
type Record[P any] interface {
	ordering.Entity[P]
	SetPosition(order int)
	ClearID()
}

// CollectionOption customises a CollectionService.
type CollectionOption[P Record[P]] func(*CollectionService[P])

// WithPublicFilter restricts what List(activeOnly=true) returns beyond the active flag.
func WithPublicFilter[P Record[P]](keep func(P) bool) CollectionOption[P] {
	return func(s *CollectionService[P]) {
		s.public = keep
	}
}

// CollectionService manages one user-sortable collection.
type CollectionService[P Record[P]] struct {
	db     *gorm.DB
	name   string
	newFn  func() P
	public func(P) bool
	log    *zap.Logger
}

// NewCollectionService constructs a service for the collection name. newFn returns a fresh,
// unsaved record used both as a decoding target and as the gorm model.
func NewCollectionService[P Record[P]](db *gorm.DB, name string, newFn func() P, opts ...CollectionOption[P]) (*CollectionService[P], error) {
	if db == nil {
		return nil, fmt.Errorf("%s service: db is required", name)
	}
	if newFn == nil {
		return nil, fmt.Errorf("%s service: constructor is required", name)
	}
	s := &CollectionService[P]{
		db:    db,
		name:  name,
		newFn: newFn,
		log:   logger.WithModule(name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the collection name.
func (s *CollectionService[P]) Name() string {
	return s.name
}

// New returns a fresh, unsaved record.
func (s *CollectionService[P]) New() P {
	return s.newFn()
}

// List returns the collection in display order. With activeOnly the result is filtered
// after sorting and the public filter applies.
func (s *CollectionService[P]) List(ctx context.Context, activeOnly bool) ([]P, error) {
	rows, err := s.load(s.db.WithContext(ensuredContext(ctx)))
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return rows, nil
	}

	visible := ordering.Visible(rows)
	if s.public == nil {
		return visible, nil
	}
	out := make([]P, 0, len(visible))
	for _, item := range visible {
		if s.public(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get retrieves one record.
func (s *CollectionService[P]) Get(ctx context.Context, id int64) (P, error) {
	rec := s.newFn()
	if id <= 0 {
		return rec, ErrItemNotFound
	}
	if err := s.db.WithContext(ensuredContext(ctx)).First(rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, ErrItemNotFound
		}
		return rec, err
	}
	return rec, nil
}

// Create persists rec. The database assigns the id; with appendToEnd the record is placed
// after every existing item.
func (s *CollectionService[P]) Create(ctx context.Context, rec P, appendToEnd bool) (P, error) {
	ctx = ensuredContext(ctx)
	rec.ClearID()

	if appendToEnd {
		next, err := s.nextPosition(ctx)
		if err != nil {
			return rec, err
		}
		rec.SetPosition(next)
	}
	if err := s.validate(rec); err != nil {
		return rec, err
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			return rec, ErrItemConflict
		}
		return rec, err
	}
	s.log.Info("item created", zap.Int64("id", rec.EntityID()), zap.Int("order", rec.Position()))
	return rec, nil
}

// Update loads the record, lets apply modify it and saves the result. apply must not change
// the record id.
func (s *CollectionService[P]) Update(ctx context.Context, id int64, apply func(P) error) (P, error) {
	ctx = ensuredContext(ctx)

	rec, err := s.Get(ctx, id)
	if err != nil {
		return rec, err
	}
	if apply != nil {
		if err := apply(rec); err != nil {
			return rec, fmt.Errorf("%w: %w", ErrInvalidItem, err)
		}
	}
	if rec.EntityID() != id {
		return rec, fmt.Errorf("%w: id cannot change", ErrInvalidItem)
	}
	if err := s.validate(rec); err != nil {
		return rec, err
	}

	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			return rec, ErrItemConflict
		}
		return rec, err
	}
	return rec, nil
}

// Delete removes a record.
func (s *CollectionService[P]) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ensuredContext(ctx)).Delete(s.newFn(), "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	s.log.Info("item deleted", zap.Int64("id", id))
	return nil
}

// Reorder assigns the requested positions and densely re-ranks the whole collection in one
// transaction. It returns the authoritative list in display order.
func (s *CollectionService[P]) Reorder(ctx context.Context, pairs []ordering.Pair) ([]P, error) {
	if err := ordering.Validate(pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReorder, err)
	}

	var ranked []P
	err := s.db.WithContext(ensuredContext(ctx)).Transaction(func(tx *gorm.DB) error {
		rows, err := s.load(tx)
		if err != nil {
			return err
		}

		known := make(map[int64]struct{}, len(rows))
		for _, row := range rows {
			known[row.EntityID()] = struct{}{}
		}
		for _, p := range pairs {
			if _, ok := known[p.ID]; !ok {
				return fmt.Errorf("%w: id %d", ErrItemNotFound, p.ID)
			}
		}

		ranked = ordering.Rank(ordering.Apply(rows, pairs))
		return s.persistPositions(tx, rows, ranked)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("collection reordered", zap.Int("moved", len(pairs)), zap.Int("size", len(ranked)))
	return ranked, nil
}

// Compact rewrites positions to a dense 0..n-1 ranking, closing gaps left by deletions.
// It returns how many records moved.
func (s *CollectionService[P]) Compact(ctx context.Context) (int, error) {
	moved := 0
	err := s.db.WithContext(ensuredContext(ctx)).Transaction(func(tx *gorm.DB) error {
		rows, err := s.load(tx)
		if err != nil {
			return err
		}
		ranked := ordering.Rank(rows)
		moved = len(ordering.Diff(rows, ranked))
		return s.persistPositions(tx, rows, ranked)
	})
	if err != nil {
		return 0, err
	}
	if moved > 0 {
		s.log.Debug("collection compacted", zap.Int("moved", moved))
	}
	return moved, nil
}

func (s *CollectionService[P]) load(db *gorm.DB) ([]P, error) {
	var rows []P
	if err := db.Model(s.newFn()).Order("sort_order ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CollectionService[P]) persistPositions(tx *gorm.DB, before, after []P) error {
	for _, p := range ordering.Diff(before, after) {
		if err := tx.Model(s.newFn()).Where("id = ?", p.ID).Update("sort_order", p.Order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *CollectionService[P]) nextPosition(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := s.db.WithContext(ctx).Model(s.newFn()).Select("MAX(sort_order)").Row().Scan(&maxOrder); err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return 0, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

func (s *CollectionService[P]) validate(rec P) error {
	if rec.Position() < 0 {
		return fmt.Errorf("%w: order must not be negative", ErrInvalidItem)
	}
	if err := appValidator.ValidateStruct(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mindfulpath/practicesite/internal/database"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
	"github.com/mindfulpath/practicesite/pkg/logger"
)

// ConfigService manages the key/value site content store.
type ConfigService struct {
	db  *gorm.DB
	log *zap.Logger

	mu          sync.RWMutex
	maintenance *siteconfig.Maintenance
}

// NewConfigService constructs a config service once a database handle is supplied.
func NewConfigService(db *gorm.DB) (*ConfigService, error) {
	if db == nil {
		return nil, errors.New("config service: db is required")
	}
	return &ConfigService{db: db, log: logger.WithModule("config")}, nil
}

// List returns every stored entry ordered by key.
func (s *ConfigService) List(ctx context.Context) ([]models.ConfigEntry, error) {
	return database.ListConfigEntries(ensuredContext(ctx), s.db)
}

// Get returns the entry stored under key.
func (s *ConfigService) Get(ctx context.Context, key string) (*models.ConfigEntry, error) {
	key = normaliseKey(key)
	if !siteconfig.Known(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfigKey, key)
	}

	entry, err := database.GetConfigEntry(ensuredContext(ctx), s.db, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrConfigEntryNotFound
	}
	return entry, nil
}

// Upsert validates raw against the section type for key, fills omitted fields from the
// section defaults and stores the result. Create and update are the same operation.
func (s *ConfigService) Upsert(ctx context.Context, key string, raw json.RawMessage) (*models.ConfigEntry, error) {
	ctx = ensuredContext(ctx)
	key = normaliseKey(key)

	section, err := siteconfig.Decode(key, raw)
	if err != nil {
		if errors.Is(err, siteconfig.ErrUnknownKey) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConfigKey, key)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigValue, err)
	}

	payload, err := siteconfig.Encode(section)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigValue, err)
	}

	entry, err := database.UpsertConfigEntry(ctx, s.db, key, payload)
	if err != nil {
		return nil, err
	}

	if m, ok := section.(*siteconfig.Maintenance); ok {
		s.setMaintenance(*m)
	}
	s.log.Info("config section saved", zap.String("key", key))
	return entry, nil
}

// Delete removes an optional section. Required sections are never hard-deleted.
func (s *ConfigService) Delete(ctx context.Context, key string) error {
	key = normaliseKey(key)
	if !siteconfig.Known(key) {
		return fmt.Errorf("%w: %q", ErrUnknownConfigKey, key)
	}
	if !siteconfig.Deletable(key) {
		return ErrConfigNotDeletable
	}

	deleted, err := database.DeleteConfigEntry(ensuredContext(ctx), s.db, key)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConfigEntryNotFound
	}
	s.log.Info("config section deleted", zap.String("key", key))
	return nil
}

// Maintenance returns the current maintenance switch, loading it on first use.
func (s *ConfigService) Maintenance(ctx context.Context) (siteconfig.Maintenance, error) {
	s.mu.RLock()
	cached := s.maintenance
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	if err := s.RefreshMaintenance(ctx); err != nil {
		return siteconfig.Maintenance{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.maintenance, nil
}

// RefreshMaintenance reloads the maintenance switch from the database. A missing entry
// means maintenance is off.
func (s *ConfigService) RefreshMaintenance(ctx context.Context) error {
	entry, err := database.GetConfigEntry(ensuredContext(ctx), s.db, string(siteconfig.KeyMaintenance))
	if err != nil {
		return err
	}

	var raw []byte
	if entry != nil {
		raw = entry.Value
	}

	section, err := siteconfig.Decode(string(siteconfig.KeyMaintenance), raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfigValue, err)
	}
	s.setMaintenance(*section.(*siteconfig.Maintenance))
	return nil
}

func (s *ConfigService) setMaintenance(m siteconfig.Maintenance) {
	s.mu.Lock()
	prev := s.maintenance
	s.maintenance = &m
	s.mu.Unlock()

	if prev == nil || prev.Enabled != m.Enabled {
		s.log.Info("maintenance mode updated", zap.Bool("enabled", m.Enabled))
	}
}

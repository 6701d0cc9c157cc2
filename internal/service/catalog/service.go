package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/metrics"
	"github.com/jwalitptl/clinic-checkin/pkg/validator"
)

// Service answers which services run in a (weekday, slot) window. Reads are
// served from a short-lived in-process cache; writes invalidate it.
type Service struct {
	repo      repository.ScheduleRepository
	cache     *cache.Cache
	ttl       time.Duration
	validator validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewService builds the catalog. A zero ttl disables caching.
func NewService(repo repository.ScheduleRepository, ttl time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Service{
		repo:      repo,
		cache:     cache.New(ttl, cleanup),
		ttl:       ttl,
		validator: validator.New(),
		logger:    logger,
		metrics:   metrics,
	}
}

func cacheKey(weekday time.Weekday, slot model.TimeSlot) string {
	return fmt.Sprintf("%d:%s", weekday, slot)
}

// AvailableServices returns the ordered services for the window, or nothing
// when the clinic is closed or the window is unconfigured. Store failures are
// logged and read as an empty window.
func (s *Service) AvailableServices(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) []model.CatalogEntry {
	if !model.IsClinicDay(weekday) || !slot.Valid() {
		return nil
	}

	key := cacheKey(weekday, slot)
	if s.ttl > 0 {
		if cached, found := s.cache.Get(key); found {
			s.metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
			return clone(cached.([]model.CatalogEntry))
		}
		s.metrics.CatalogCacheHits.WithLabelValues("miss").Inc()
	}

	entries, err := s.repo.ListEntries(ctx, weekday, slot)
	if err != nil {
		s.logger.WithContext(ctx).Error(err, "Failed to load service catalog",
			"weekday", weekday.String(), "slot", string(slot))
		return nil
	}

	if s.ttl > 0 {
		s.cache.Set(key, clone(entries), cache.DefaultExpiration)
	}
	return entries
}

func (s *Service) IsServiceAvailable(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, service model.ServiceType) bool {
	_, ok := s.Lookup(ctx, weekday, slot, service)
	return ok
}

func (s *Service) Lookup(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, service model.ServiceType) (model.CatalogEntry, bool) {
	for _, e := range s.AvailableServices(ctx, weekday, slot) {
		if e.ServiceType == service {
			return e, true
		}
	}
	return model.CatalogEntry{}, false
}

// Entries is the uncached admin read; unlike AvailableServices it reports
// store failures.
func (s *Service) Entries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) ([]model.CatalogEntry, error) {
	if err := checkWindow(weekday, slot); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, weekday, slot)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	return entries, nil
}

// ReplaceEntries swaps the whole window. Order of entries is the display order.
func (s *Service) ReplaceEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, entries []model.CatalogEntry) error {
	if err := checkWindow(weekday, slot); err != nil {
		return err
	}

	seen := make(map[model.ServiceType]bool, len(entries))
	for i := range entries {
		if err := s.validator.Validate(entries[i]); err != nil {
			return &errors.AppError{
				Code:    errors.ErrBadRequest,
				Message: fmt.Sprintf("invalid catalog entry %d", i),
				Details: err,
				Err:     err,
			}
		}
		if seen[entries[i].ServiceType] {
			return errors.NewBadRequest(fmt.Sprintf("service %s listed twice", entries[i].ServiceType), nil)
		}
		seen[entries[i].ServiceType] = true
	}

	if err := s.repo.ReplaceEntries(ctx, weekday, slot, entries); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	s.cache.Delete(cacheKey(weekday, slot))

	s.logger.WithContext(ctx).Info("Service catalog updated",
		"weekday", weekday.String(), "slot", string(slot), "entries", len(entries))
	return nil
}

func checkWindow(weekday time.Weekday, slot model.TimeSlot) error {
	if !model.IsClinicDay(weekday) {
		return errors.NewBadRequest(fmt.Sprintf("clinic does not run services on %s", weekday), nil)
	}
	if !slot.Valid() {
		return errors.NewBadRequest(fmt.Sprintf("unknown time slot %q", slot), nil)
	}
	return nil
}

func clone(entries []model.CatalogEntry) []model.CatalogEntry {
	if entries == nil {
		return nil
	}
	out := make([]model.CatalogEntry, len(entries))
	copy(out, entries)
	return out
}

package sequence

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/metrics"
)

// MaxPerDay is the largest suffix a five-digit id can carry.
const MaxPerDay = 99999

var prefixPattern = regexp.MustCompile(`^[A-Z]{2,8}$`)

// Allocator hands out ids of the form PREFIX-YYYYMMDD-NNNNN. Each call is a
// single atomic increment against the counter store, so concurrent callers
// never receive the same id.
type Allocator struct {
	counters repository.CounterRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewAllocator(counters repository.CounterRepository, logger *logger.Logger, metrics *metrics.Metrics) *Allocator {
	return &Allocator{counters: counters, logger: logger, metrics: metrics}
}

// Next allocates the next id for prefix on date. Only date's calendar day
// is used; callers pass it in the clinic's location.
func (a *Allocator) Next(ctx context.Context, prefix string, date time.Time) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", errors.NewBadRequest(fmt.Sprintf("invalid sequence prefix %q", prefix), nil)
	}
	day := model.DateOf(date)

	value, err := a.counters.Increment(ctx, prefix, day)
	if err != nil {
		a.metrics.AllocationFailures.WithLabelValues(prefix).Inc()
		a.logger.Error(err, "Sequence allocation failed", "prefix", prefix)
		return "", errors.NewAllocationUnavailable(err)
	}
	if value > MaxPerDay {
		a.metrics.AllocationFailures.WithLabelValues(prefix).Inc()
		err := fmt.Errorf("sequence %s exhausted for %s", prefix, day.Format("2006-01-02"))
		a.logger.Error(err, "Sequence exhausted", "prefix", prefix, "value", value)
		return "", errors.NewAllocationUnavailable(err)
	}

	a.metrics.Allocations.WithLabelValues(prefix).Inc()
	return Format(prefix, day, value), nil
}

// Seed raises the day's counter so the next id is strictly above floor.
func (a *Allocator) Seed(ctx context.Context, prefix string, date time.Time, floor int64) error {
	if !prefixPattern.MatchString(prefix) {
		return errors.NewBadRequest(fmt.Sprintf("invalid sequence prefix %q", prefix), nil)
	}
	if floor < 0 || floor > MaxPerDay {
		return errors.NewBadRequest(fmt.Sprintf("seed value %d out of range", floor), nil)
	}
	if err := a.counters.Seed(ctx, prefix, model.DateOf(date), floor); err != nil {
		return errors.NewAllocationUnavailable(err)
	}
	a.logger.Info("Sequence seeded", "prefix", prefix, "date", model.DateOf(date).Format("2006-01-02"), "floor", floor)
	return nil
}

func Format(prefix string, date time.Time, value int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, date.Format("20060102"), value)
}

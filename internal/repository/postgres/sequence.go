package postgres

import (
	"context"
	"fmt"
	"time"
)

// Increment bumps the (prefix, date) counter and returns the new value in a
// single statement, so concurrent callers always observe distinct values.
func (r *counterRepository) Increment(ctx context.Context, prefix string, date time.Time) (int64, error) {
	var value int64
	err := r.GetDB().GetContext(ctx, &value, `
		INSERT INTO sequence_counters (prefix, scope_date, value, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (prefix, scope_date)
		DO UPDATE SET value = sequence_counters.value + 1, updated_at = NOW()
		RETURNING value`, prefix, date)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", prefix, err)
	}
	return value, nil
}

func (r *counterRepository) Seed(ctx context.Context, prefix string, date time.Time, floor int64) error {
	_, err := r.GetDB().ExecContext(ctx, `
		INSERT INTO sequence_counters (prefix, scope_date, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (prefix, scope_date)
		DO UPDATE SET value = GREATEST(sequence_counters.value, EXCLUDED.value), updated_at = NOW()`,
		prefix, date, floor)
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", prefix, err)
	}
	return nil
}

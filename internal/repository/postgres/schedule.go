package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-checkin/internal/model"
)

func (r *scheduleRepository) ListEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	err := r.GetDB().SelectContext(ctx, &entries, `
		SELECT id, weekday, time_slot, position, service_type, requires_vital_signs,
			   max_capacity, estimated_duration_minutes, updated_at
		FROM service_schedules
		WHERE weekday = $1 AND time_slot = $2
		ORDER BY position ASC`, int(weekday), slot)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	return entries, nil
}

// ReplaceEntries swaps the whole (weekday, slot) window atomically.
func (r *scheduleRepository) ReplaceEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, entries []model.CatalogEntry) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM service_schedules WHERE weekday = $1 AND time_slot = $2`,
			int(weekday), slot); err != nil {
			return fmt.Errorf("failed to clear schedule entries: %w", err)
		}

		now := time.Now().UTC()
		for i := range entries {
			e := &entries[i]
			if e.ID == uuid.Nil {
				e.ID = uuid.New()
			}
			e.Weekday = weekday
			e.TimeSlot = slot
			e.Position = i
			e.UpdatedAt = now
			_, err := tx.ExecContext(ctx, `
				INSERT INTO service_schedules (
					id, weekday, time_slot, position, service_type, requires_vital_signs,
					max_capacity, estimated_duration_minutes, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				e.ID, int(e.Weekday), e.TimeSlot, e.Position, e.ServiceType, e.RequiresVitalSigns,
				e.MaxCapacity, e.EstimatedDurationMinutes, e.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert schedule entry %s: %w", e.ServiceType, translateError(err))
			}
		}
		return nil
	})
}

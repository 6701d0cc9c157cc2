package checkin

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/clinic-checkin/internal/model"
)

// ReadyQueue lists today's active sessions that may be seen by a doctor,
// highest priority first and FIFO within a priority.
func (s *Scheduler) ReadyQueue(ctx context.Context, now time.Time) ([]*model.CheckInSession, error) {
	sessions, err := s.activeToday(ctx, now)
	if err != nil {
		return nil, err
	}

	ready := sessions[:0]
	for _, sess := range sessions {
		if sess.VitalsGateSatisfied() {
			ready = append(ready, sess)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		ri, rj := ready[i].Priority.Rank(), ready[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})
	return ready, nil
}

// PendingVitalsQueue lists today's active sessions still waiting on vitals,
// oldest first.
func (s *Scheduler) PendingVitalsQueue(ctx context.Context, now time.Time) ([]*model.CheckInSession, error) {
	sessions, err := s.activeToday(ctx, now)
	if err != nil {
		return nil, err
	}

	pending := sessions[:0]
	for _, sess := range sessions {
		if sess.VitalSignsRequired && !sess.VitalSignsCompleted {
			pending = append(pending, sess)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// activeToday drops sessions that are past expiry even if the reaper has not
// written them yet.
func (s *Scheduler) activeToday(ctx context.Context, now time.Time) ([]*model.CheckInSession, error) {
	w := s.resolve(now)
	sessions, err := s.repo.ListActiveForDate(ctx, w.date)
	if err != nil {
		return nil, s.storageError(ctx, err, "list active sessions")
	}

	live := sessions[:0]
	for _, sess := range sessions {
		if sess.IsActive(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}

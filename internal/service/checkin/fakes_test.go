package checkin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

// memoryRepo mimics the Postgres store: the daily uniqueness rule is checked
// under the same lock as the insert, and updates are conditional on the
// stored session still being active.
type memoryRepo struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*model.CheckInSession
	appointments map[uuid.UUID]*model.Appointment
	err          error
	createErr    error
	beforeUpdate func(id uuid.UUID)
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions:     make(map[uuid.UUID]*model.CheckInSession),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

func copySession(s *model.CheckInSession) *model.CheckInSession {
	cp := *s
	return &cp
}

func (r *memoryRepo) CreateWithAppointment(_ context.Context, session *model.CheckInSession, appt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.createErr != nil {
		return r.createErr
	}
	for _, s := range r.sessions {
		if s.PatientID == session.PatientID && s.CheckInDate.Equal(session.CheckInDate) &&
			(s.Status == model.CheckInStatusActive || s.Status == model.CheckInStatusCompleted) {
			return fmt.Errorf("failed to create check-in session: %w", repository.ErrDuplicate)
		}
	}
	r.sessions[session.ID] = copySession(session)
	a := *appt
	r.appointments[appt.ID] = &a
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*model.CheckInSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("failed to get check-in session: %w", repository.ErrNotFound)
	}
	return copySession(s), nil
}

func (r *memoryRepo) FindActiveOrCompleted(_ context.Context, patientID uuid.UUID, date time.Time) (*model.CheckInSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, s := range r.sessions {
		if s.PatientID == patientID && s.CheckInDate.Equal(date) &&
			(s.Status == model.CheckInStatusActive || s.Status == model.CheckInStatusCompleted) {
			return copySession(s), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) Update(_ context.Context, session *model.CheckInSession, apptStatus model.AppointmentStatus) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate(session.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored, ok := r.sessions[session.ID]
	if !ok || stored.Status != model.CheckInStatusActive {
		return repository.ErrConflict
	}
	r.sessions[session.ID] = copySession(session)
	if apptStatus != "" {
		r.appointments[session.AppointmentID].Status = apptStatus
	}
	return nil
}

func (r *memoryRepo) ListActiveForDate(_ context.Context, date time.Time) ([]*model.CheckInSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*model.CheckInSession
	for _, s := range r.sessions {
		if s.CheckInDate.Equal(date) && s.Status == model.CheckInStatusActive {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (r *memoryRepo) CountForService(_ context.Context, date time.Time, slot model.TimeSlot, service model.ServiceType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	n := 0
	for _, s := range r.sessions {
		if s.CheckInDate.Equal(date) && s.TimeSlot == slot && s.ServiceType == service &&
			(s.Status == model.CheckInStatusActive || s.Status == model.CheckInStatusCompleted) {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, s := range r.sessions {
		if s.Status == model.CheckInStatusActive && s.ExpiresAt.Before(now) {
			s.Status = model.CheckInStatusExpired
			r.appointments[s.AppointmentID].Status = model.AppointmentStatusNoShow
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) setStatus(id uuid.UUID, status model.CheckInStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id].Status = status
}

func (r *memoryRepo) appointment(id uuid.UUID) model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.appointments[id]
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type staticCatalog map[string][]model.CatalogEntry

func catalogKey(weekday time.Weekday, slot model.TimeSlot) string {
	return fmt.Sprintf("%d:%s", weekday, slot)
}

func (c staticCatalog) AvailableServices(_ context.Context, weekday time.Weekday, slot model.TimeSlot) []model.CatalogEntry {
	return c[catalogKey(weekday, slot)]
}

type counterAllocator struct {
	mu    sync.Mutex
	next  map[string]int
	err   error
	calls int
}

func (a *counterAllocator) Next(_ context.Context, prefix string, date time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	if a.next == nil {
		a.next = make(map[string]int)
	}
	a.next[prefix]++
	return fmt.Sprintf("%s-%s-%05d", prefix, date.Format("20060102"), a.next[prefix]), nil
}

type recordingSink struct {
	mu        sync.Mutex
	created   []uuid.UUID
	notified  []uuid.UUID
	cancelled []uuid.UUID
	err       error
}

func (s *recordingSink) EmitCheckInCreated(_ context.Context, session *model.CheckInSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, session.ID)
	return s.err
}

func (s *recordingSink) EmitDoctorNotified(_ context.Context, session *model.CheckInSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = append(s.notified, session.ID)
	return s.err
}

func (s *recordingSink) EmitCheckInCancelled(_ context.Context, session *model.CheckInSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, session.ID)
	return s.err
}

type fakeTokens map[string]uuid.UUID

func (f fakeTokens) Verify(raw string) (uuid.UUID, time.Time, error) {
	id, ok := f[raw]
	if !ok {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid check-in token")
	}
	return id, time.Time{}, nil
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

type slotRef struct {
	doctorID string
	slot     schedule.SlotKey
}

// Memory is a process-local store with the same contract as Store. One
// mutex covers everything, so the slot check and insert are atomic.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	emails   map[string]string
	doctors  map[string]*model.Doctor
	appts    map[string]*model.Appointment
	slots    map[slotRef]string
	tokens   map[string]*model.RefreshToken
	tokenIdx map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*model.User),
		emails:   make(map[string]string),
		doctors:  make(map[string]*model.Doctor),
		appts:    make(map[string]*model.Appointment),
		slots:    make(map[slotRef]string),
		tokens:   make(map[string]*model.RefreshToken),
		tokenIdx: make(map[string]string),
	}
}

// ---- users ----

func (m *Memory) insertUser(u *model.User) error {
	key := strings.ToLower(u.Email)
	if _, dup := m.emails[key]; dup {
		return model.Errorf(model.CodeAlreadyExists, "registration failed")
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	m.emails[key] = u.ID
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertUser(u)
}

func (m *Memory) CreateDoctorAccount(ctx context.Context, u *model.User, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.insertUser(u); err != nil {
		return err
	}
	cp := *d
	cp.UserID = u.ID
	cp.CreatedAt, cp.UpdatedAt = u.CreatedAt, u.CreatedAt
	m.doctors[d.ID] = &cp
	return nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, model.Errorf(model.CodeNotFound, "user not found")
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) UserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.Errorf(model.CodeNotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

// ---- refresh tokens ----

func (m *Memory) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.putToken(id, userID, tokenHash, expiresAt)
	return id, nil
}

func (m *Memory) putToken(id, userID, hash string, exp time.Time) {
	m.tokens[id] = &model.RefreshToken{ID: id, UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now()}
	m.tokenIdx[hash] = id
}

func (m *Memory) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokenIdx[tokenHash]
	if !ok {
		return nil, model.ErrUnauthorized
	}
	cp := *m.tokens[id]
	return &cp, nil
}

func (m *Memory) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return model.ErrUnauthorized
	}
	old.Revoked = true
	m.putToken(newID, userID, newHash, newExpiry)
	return nil
}

func (m *Memory) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// ---- doctors ----

func (m *Memory) doctorCopy(d *model.Doctor) *model.Doctor {
	cp := *d
	if u, ok := m.users[d.UserID]; ok {
		cp.Name, cp.Email = u.Name, u.Email
	}
	cp.Schedule = make(schedule.WeeklySchedule, len(d.Schedule))
	for k, v := range d.Schedule {
		cp.Schedule[k] = v
	}
	return &cp
}

func (m *Memory) DoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, model.Errorf(model.CodeNotFound, "doctor not found")
	}
	return m.doctorCopy(d), nil
}

func (m *Memory) DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.doctors {
		if d.UserID == userID {
			return m.doctorCopy(d), nil
		}
	}
	return nil, model.Errorf(model.CodeNotFound, "doctor not found")
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *Memory) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Doctor{}
	for _, d := range m.doctors {
		switch {
		case f.Specialty != "" && !containsFold(d.Specialty, f.Specialty),
			f.Location != "" && !containsFold(d.Location, f.Location),
			f.Status != "" && d.Status != f.Status,
			f.BookableOnly && (d.Status != model.DoctorApproved || !d.ProfileConfigured):
			continue
		}
		out = append(out, *m.doctorCopy(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveDoctorProfile(ctx context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.doctors[d.ID]
	if !ok {
		return model.Errorf(model.CodeNotFound, "doctor not found")
	}
	cp := *d
	cp.UserID, cp.Status, cp.CreatedAt = cur.UserID, cur.Status, cur.CreatedAt
	cp.UpdatedAt = time.Now()
	m.doctors[d.ID] = m.doctorCopy(&cp)
	return nil
}

func (m *Memory) SetDoctorStatus(ctx context.Context, id string, st model.DoctorStatus, configured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return model.Errorf(model.CodeNotFound, "doctor not found")
	}
	d.Status, d.ProfileConfigured, d.UpdatedAt = st, configured, time.Now()
	return nil
}

// ---- appointments ----

func (m *Memory) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := slotRef{doctorID: a.DoctorID, slot: a.Slot()}
	if _, taken := m.slots[ref]; taken {
		return model.ErrSlotConflict
	}
	cp := *a
	m.appts[a.ID] = &cp
	m.slots[ref] = a.ID
	return nil
}

func (m *Memory) SlotTaken(ctx context.Context, doctorID string, slot schedule.SlotKey) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, taken := m.slots[slotRef{doctorID: doctorID, slot: slot}]
	return taken, nil
}

func (m *Memory) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, model.Errorf(model.CodeNotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateAppointment(ctx context.Context, a *model.Appointment, from model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.appts[a.ID]
	if !ok || cur.Status != from {
		return model.Errorf(model.CodeInvalidTransition, "appointment was changed by someone else")
	}
	cur.Status, cur.Notes, cur.CancellationReason = a.Status, a.Notes, a.CancellationReason
	cur.UpdatedAt = time.Now()
	if !cur.Status.Occupies() {
		delete(m.slots, slotRef{doctorID: cur.DoctorID, slot: cur.Slot()})
	}
	return nil
}

func (m *Memory) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Appointment{}
	for _, a := range m.appts {
		switch {
		case f.DoctorID != "" && a.DoctorID != f.DoctorID,
			f.PatientID != "" && a.PatientID != f.PatientID,
			f.Status != "" && a.Status != f.Status,
			!f.From.IsZero() && a.Date.Before(f.From),
			!f.To.IsZero() && a.Date.After(f.To),
			f.Active && !a.Status.Occupies():
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *Memory) CountAppointmentsByStatus(ctx context.Context) (map[model.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.Status]int)
	for _, a := range m.appts {
		out[a.Status]++
	}
	return out, nil
}

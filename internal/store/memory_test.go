package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
	"doctor-appointments-api/internal/store"
)

func newAppointment(doctorID, date, at string) *model.Appointment {
	d, _ := schedule.ParseDate(date)
	c, _ := schedule.ParseClock(at)
	return &model.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  doctorID,
		PatientID: uuid.New().String(),
		Date:      d,
		StartTime: c,
		EndTime:   c.Add(30),
		Status:    model.StatusScheduled,
	}
}

func TestMemoryConcurrentCreateOneWinner(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.CreateAppointment(ctx, newAppointment("doc-1", "2030-01-07", "09:00"))
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, model.ErrSlotConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestMemoryCancelFreesSlot(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	a := newAppointment("doc-1", "2030-01-07", "09:00")
	require.NoError(t, m.CreateAppointment(ctx, a))

	taken, err := m.SlotTaken(ctx, "doc-1", a.Slot())
	require.NoError(t, err)
	assert.True(t, taken)

	a.Status = model.StatusCancelled
	require.NoError(t, m.UpdateAppointment(ctx, a, model.StatusScheduled))

	taken, err = m.SlotTaken(ctx, "doc-1", a.Slot())
	require.NoError(t, err)
	assert.False(t, taken)

	again := newAppointment("doc-1", "2030-01-07", "09:00")
	assert.NoError(t, m.CreateAppointment(ctx, again))

	active, err := m.ListAppointments(ctx, model.AppointmentFilter{DoctorID: "doc-1", Active: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, again.ID, active[0].ID)
}

func TestMemoryUpdateRejectsStaleStatus(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	a := newAppointment("doc-1", "2030-01-07", "09:00")
	require.NoError(t, m.CreateAppointment(ctx, a))

	a.Status = model.StatusConfirmed
	err := m.UpdateAppointment(ctx, a, model.StatusPending)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestMemoryDuplicateEmail(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	u := &model.User{ID: uuid.New().String(), Email: "ana@example.com", Name: "Ana", Role: model.RolePatient}
	require.NoError(t, m.CreateUser(ctx, u))

	dup := &model.User{ID: uuid.New().String(), Email: "ANA@example.com", Name: "Ana 2", Role: model.RolePatient}
	assert.ErrorIs(t, m.CreateUser(ctx, dup), model.ErrAlreadyExists)
}

func TestMemoryListDoctorsFilters(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	add := func(name, specialty, location string, st model.DoctorStatus, configured bool) string {
		u := &model.User{ID: uuid.New().String(), Email: name + "@example.com", Name: name, Role: model.RoleDoctor}
		d := &model.Doctor{ID: uuid.New().String(), Specialty: specialty, Location: location, Status: st, ProfileConfigured: configured}
		require.NoError(t, m.CreateDoctorAccount(ctx, u, d))
		return d.ID
	}
	cardio := add("Bea", "Cardiología", "Quito", model.DoctorApproved, true)
	add("Carlos", "Cardiología", "Guayaquil", model.DoctorApproved, false)
	add("Dora", "Dermatología", "Quito", model.DoctorPending, false)

	got, err := m.ListDoctors(ctx, model.DoctorFilter{Specialty: "cardio", BookableOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cardio, got[0].ID)
	assert.Equal(t, "Bea", got[0].Name)

	pending, err := m.ListDoctors(ctx, model.DoctorFilter{Status: model.DoctorPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dora", pending[0].Name)
}

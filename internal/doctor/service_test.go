package doctor_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctor-appointments-api/internal/doctor"
	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
	"doctor-appointments-api/internal/store"
)

type countingInvalidator struct{ ids []string }

func (c *countingInvalidator) InvalidateDoctor(_ context.Context, id string) {
	c.ids = append(c.ids, id)
}

func register(t *testing.T, mem *store.Memory, name string) (*model.Doctor, model.Session) {
	t.Helper()
	u := &model.User{ID: uuid.New().String(), Email: name + "@example.com", Name: name, Role: model.RoleDoctor}
	d := &model.Doctor{ID: uuid.New().String(), Status: model.DoctorPending, AppointmentDuration: model.DefaultAppointmentDuration}
	require.NoError(t, mem.CreateDoctorAccount(context.Background(), u, d))
	return d, model.Session{UserID: u.ID, Role: model.RoleDoctor}
}

func validUpdate() doctor.ProfileUpdate {
	return doctor.ProfileUpdate{
		Specialty:           "Cardiología",
		Location:            "Quito",
		ConsultationCost:    decimal.RequireFromString("40.00"),
		AppointmentDuration: 20,
		WeeklySchedule: []schedule.Entry{
			{Day: "MONDAY", StartTime: "08:00", EndTime: "12:00"},
			{Day: "THURSDAY", StartTime: "14:00", EndTime: "18:00"},
		},
	}
}

func TestApproveThenConfigureMakesBookable(t *testing.T) {
	mem := store.NewMemory()
	inv := &countingInvalidator{}
	svc := doctor.NewService(mem, inv, zerolog.Nop())
	ctx := context.Background()
	d, ses := register(t, mem, "bea")

	_, err := svc.UpdateProfile(ctx, ses, validUpdate())
	assert.ErrorIs(t, err, model.ErrForbidden, "pending doctors cannot configure")

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := svc.Approve(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DoctorApproved, approved.Status)
	assert.False(t, approved.ProfileConfigured)

	saved, err := svc.UpdateProfile(ctx, ses, validUpdate())
	require.NoError(t, err)
	assert.True(t, saved.ProfileConfigured)
	assert.True(t, saved.Bookable())

	stored, err := mem.DoctorByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, validUpdate().WeeklySchedule, stored.Schedule.Entries())
	assert.Equal(t, 20, stored.AppointmentDuration)
	assert.Contains(t, inv.ids, d.ID)

	found, err := svc.Search(ctx, "cardio", "qui")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bea", found[0].Name)

	_, err = svc.Approve(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateProfileValidation(t *testing.T) {
	mem := store.NewMemory()
	svc := doctor.NewService(mem, nil, zerolog.Nop())
	ctx := context.Background()
	d, ses := register(t, mem, "carla")
	_, err := svc.Approve(ctx, d.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*doctor.ProfileUpdate)
	}{
		{"no specialty", func(u *doctor.ProfileUpdate) { u.Specialty = " " }},
		{"no location", func(u *doctor.ProfileUpdate) { u.Location = "" }},
		{"negative cost", func(u *doctor.ProfileUpdate) { u.ConsultationCost = decimal.NewFromInt(-1) }},
		{"duration too short", func(u *doctor.ProfileUpdate) { u.AppointmentDuration = 10 }},
		{"duration too long", func(u *doctor.ProfileUpdate) { u.AppointmentDuration = 180 }},
		{"empty schedule", func(u *doctor.ProfileUpdate) { u.WeeklySchedule = nil }},
		{"inverted window", func(u *doctor.ProfileUpdate) {
			u.WeeklySchedule = []schedule.Entry{{Day: "MONDAY", StartTime: "12:00", EndTime: "08:00"}}
		}},
		{"unknown day", func(u *doctor.ProfileUpdate) {
			u.WeeklySchedule = []schedule.Entry{{Day: "LUNES", StartTime: "08:00", EndTime: "12:00"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUpdate()
			tt.mutate(&u)
			_, err := svc.UpdateProfile(ctx, ses, u)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestDefaultDuration(t *testing.T) {
	mem := store.NewMemory()
	svc := doctor.NewService(mem, nil, zerolog.Nop())
	ctx := context.Background()
	d, ses := register(t, mem, "dario")
	_, err := svc.Approve(ctx, d.ID)
	require.NoError(t, err)

	u := validUpdate()
	u.AppointmentDuration = 0
	saved, err := svc.UpdateProfile(ctx, ses, u)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppointmentDuration, saved.AppointmentDuration)
}

func TestPublicGetHidesUnapproved(t *testing.T) {
	mem := store.NewMemory()
	svc := doctor.NewService(mem, nil, zerolog.Nop())
	ctx := context.Background()
	d, _ := register(t, mem, "elena")

	_, err := svc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Reject(ctx, d.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Approve(ctx, d.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "elena", got.Name)
}

func TestProfileRequiresDoctorRole(t *testing.T) {
	svc := doctor.NewService(store.NewMemory(), nil, zerolog.Nop())
	_, err := svc.Profile(context.Background(), model.Session{UserID: "x", Role: model.RolePatient})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

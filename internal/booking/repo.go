package booking

import (
	"context"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

// AppointmentRepository persists appointments. CreateAppointment must fail
// with model.ErrSlotConflict when another appointment already occupies the
// slot, and must decide that atomically with the insert.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	// UpdateAppointment saves status and notes only if the stored status is
	// still from; otherwise it returns model.ErrInvalidTransition.
	UpdateAppointment(ctx context.Context, a *model.Appointment, from model.Status) error
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
	SlotTaken(ctx context.Context, doctorID string, slot schedule.SlotKey) (bool, error)
	CountAppointmentsByStatus(ctx context.Context) (map[model.Status]int, error)
}

type DoctorLookup interface {
	DoctorByID(ctx context.Context, id string) (*model.Doctor, error)
	DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error)
}

// AvailabilityCache stores resolved availability per doctor and range.
type AvailabilityCache interface {
	Get(ctx context.Context, doctorID string, from, to schedule.Date) (schedule.Availability, bool)
	Set(ctx context.Context, doctorID string, from, to schedule.Date, av schedule.Availability)
	InvalidateDoctor(ctx context.Context, doctorID string)
}

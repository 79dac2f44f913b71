package model

import (
	"time"

	"github.com/shopspring/decimal"

	"doctor-appointments-api/internal/schedule"
)

type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is the authenticated caller, passed explicitly to services.
type Session struct {
	UserID string
	Role   Role
}

func (s Session) Is(r Role) bool { return s.Role == r }

type DoctorStatus string

const (
	DoctorPending  DoctorStatus = "PENDING"
	DoctorApproved DoctorStatus = "APPROVED"
	DoctorRejected DoctorStatus = "REJECTED"
)

const DefaultAppointmentDuration = 30

type Doctor struct {
	ID                  string                  `json:"id"`
	UserID              string                  `json:"userId"`
	Name                string                  `json:"name"`
	Email               string                  `json:"email"`
	Specialty           string                  `json:"specialty"`
	Location            string                  `json:"location"`
	ConsultationCost    decimal.Decimal         `json:"consultationCost"`
	AppointmentDuration int                     `json:"appointmentDuration"`
	Presentation        string                  `json:"presentation"`
	PhotoURL            string                  `json:"photoUrl"`
	Status              DoctorStatus            `json:"status"`
	ProfileConfigured   bool                    `json:"profileConfigured"`
	Schedule            schedule.WeeklySchedule `json:"-"`
	CreatedAt           time.Time               `json:"createdAt"`
	UpdatedAt           time.Time               `json:"updatedAt"`
}

// Bookable reports whether patients may book with this doctor.
func (d *Doctor) Bookable() bool {
	return d.Status == DoctorApproved && d.ProfileConfigured &&
		d.AppointmentDuration > 0 && d.Schedule.Available()
}

type DoctorFilter struct {
	Specialty string
	Location  string
	Status    DoctorStatus
	// BookableOnly keeps approved doctors with a configured profile.
	BookableOnly bool
}

type Appointment struct {
	ID                 string         `json:"id"`
	DoctorID           string         `json:"doctorId"`
	PatientID          string         `json:"patientId"`
	Date               schedule.Date  `json:"date"`
	StartTime          schedule.Clock `json:"startTime"`
	EndTime            schedule.Clock `json:"endTime"`
	Status             Status         `json:"estado"`
	Reason             string         `json:"motivoConsulta,omitempty"`
	Notes              string         `json:"notas,omitempty"`
	CancellationReason string         `json:"motivoCancelacion,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func (a *Appointment) Slot() schedule.SlotKey {
	return schedule.SlotKey{Date: a.Date, Start: a.StartTime}
}

type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	Status    Status
	From, To  schedule.Date
	// Active drops cancelled appointments.
	Active bool
}

type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

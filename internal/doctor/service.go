// Package doctor manages doctor profiles, weekly schedules, public search and
// admin approval.
package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

const (
	MinAppointmentDuration = 15
	MaxAppointmentDuration = 120
)

type Repository interface {
	DoctorByID(ctx context.Context, id string) (*model.Doctor, error)
	DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error)
	ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error)
	// SaveDoctorProfile replaces profile fields and the weekly schedule.
	SaveDoctorProfile(ctx context.Context, d *model.Doctor) error
	SetDoctorStatus(ctx context.Context, id string, st model.DoctorStatus, configured bool) error
}

// Invalidator drops cached availability of a doctor.
type Invalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID string)
}

type Service struct {
	repo  Repository
	cache Invalidator
	log   zerolog.Logger
}

func NewService(repo Repository, cache Invalidator, log zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.InvalidateDoctor(ctx, id)
	}
}

type ProfileUpdate struct {
	Specialty           string           `json:"specialty"`
	Location            string           `json:"location"`
	ConsultationCost    decimal.Decimal  `json:"consultationCost"`
	AppointmentDuration int              `json:"appointmentDuration"`
	Presentation        string           `json:"presentation"`
	PhotoURL            string           `json:"photoUrl"`
	WeeklySchedule      []schedule.Entry `json:"weeklySchedule"`
}

// Profile is what a doctor sees of their own account.
type Profile struct {
	*model.Doctor
	WeeklySchedule []schedule.Entry `json:"weeklySchedule"`
}

func NewProfile(d *model.Doctor) *Profile {
	return &Profile{Doctor: d, WeeklySchedule: d.Schedule.Entries()}
}

func (u *ProfileUpdate) validate() (schedule.WeeklySchedule, error) {
	u.Specialty = strings.TrimSpace(u.Specialty)
	u.Location = strings.TrimSpace(u.Location)
	if u.Specialty == "" {
		return nil, model.Errorf(model.CodeValidation, "specialty required")
	}
	if u.Location == "" {
		return nil, model.Errorf(model.CodeValidation, "location required")
	}
	if u.ConsultationCost.IsNegative() {
		return nil, model.Errorf(model.CodeValidation, "consultationCost must not be negative")
	}
	if u.AppointmentDuration == 0 {
		u.AppointmentDuration = model.DefaultAppointmentDuration
	}
	if u.AppointmentDuration < MinAppointmentDuration || u.AppointmentDuration > MaxAppointmentDuration {
		return nil, model.Errorf(model.CodeValidation, "appointmentDuration must be between %d and %d minutes",
			MinAppointmentDuration, MaxAppointmentDuration)
	}
	if len(u.WeeklySchedule) == 0 {
		return nil, model.Errorf(model.CodeValidation, "weeklySchedule needs at least one day")
	}
	ws, err := schedule.FromEntries(u.WeeklySchedule)
	if err != nil {
		return nil, model.Errorf(model.CodeValidation, "weeklySchedule: %v", err)
	}
	return ws, nil
}

// Profile returns the calling doctor's own record.
func (s *Service) Profile(ctx context.Context, sess model.Session) (*model.Doctor, error) {
	if !sess.Is(model.RoleDoctor) {
		return nil, model.ErrForbidden
	}
	return s.repo.DoctorByUserID(ctx, sess.UserID)
}

// UpdateProfile saves profile fields, duration and weekly schedule. A saved
// profile is configured and becomes bookable.
func (s *Service) UpdateProfile(ctx context.Context, sess model.Session, u ProfileUpdate) (*model.Doctor, error) {
	d, err := s.Profile(ctx, sess)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DoctorApproved {
		return nil, model.Errorf(model.CodeForbidden, "doctor registration is %s", strings.ToLower(string(d.Status)))
	}
	ws, err := u.validate()
	if err != nil {
		return nil, err
	}

	d.Specialty = u.Specialty
	d.Location = u.Location
	d.ConsultationCost = u.ConsultationCost
	d.AppointmentDuration = u.AppointmentDuration
	d.Presentation = strings.TrimSpace(u.Presentation)
	d.PhotoURL = strings.TrimSpace(u.PhotoURL)
	d.Schedule = ws
	d.ProfileConfigured = true
	d.UpdatedAt = time.Now()

	if err := s.repo.SaveDoctorProfile(ctx, d); err != nil {
		return nil, err
	}
	s.invalidate(ctx, d.ID)
	s.log.Info().Str("doctor_id", d.ID).Int("duration", d.AppointmentDuration).Int("days", len(ws)).Msg("doctor profile saved")
	return d, nil
}

// Get returns an approved doctor; others are hidden from the public.
func (s *Service) Get(ctx context.Context, id string) (*model.Doctor, error) {
	d, err := s.repo.DoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DoctorApproved {
		return nil, model.Errorf(model.CodeNotFound, "doctor not found")
	}
	return d, nil
}

// Search lists bookable doctors, optionally narrowed by specialty and
// location substrings.
func (s *Service) Search(ctx context.Context, specialty, location string) ([]model.Doctor, error) {
	return s.repo.ListDoctors(ctx, model.DoctorFilter{
		Specialty:    strings.TrimSpace(specialty),
		Location:     strings.TrimSpace(location),
		BookableOnly: true,
	})
}

func (s *Service) Pending(ctx context.Context) ([]model.Doctor, error) {
	return s.repo.ListDoctors(ctx, model.DoctorFilter{Status: model.DoctorPending})
}

// Approve accepts a registration. The doctor must then configure a profile
// before patients can book.
func (s *Service) Approve(ctx context.Context, id string) (*model.Doctor, error) {
	return s.setStatus(ctx, id, model.DoctorApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (*model.Doctor, error) {
	return s.setStatus(ctx, id, model.DoctorRejected)
}

func (s *Service) setStatus(ctx context.Context, id string, st model.DoctorStatus) (*model.Doctor, error) {
	d, err := s.repo.DoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == st {
		return nil, model.Errorf(model.CodeValidation, "doctor is already %s", strings.ToLower(string(st)))
	}
	configured := d.ProfileConfigured
	if st == model.DoctorApproved {
		configured = false
	}
	if err := s.repo.SetDoctorStatus(ctx, id, st, configured); err != nil {
		return nil, err
	}
	d.Status = st
	d.ProfileConfigured = configured
	s.invalidate(ctx, id)
	s.log.Info().Str("doctor_id", id).Str("status", string(st)).Msg("doctor status changed")
	return d, nil
}

// Package booking resolves availability and books, updates and cancels
// appointments.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"doctor-appointments-api/internal/metrics"
	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

type Service struct {
	appts   AppointmentRepository
	doctors DoctorLookup
	cache   AvailabilityCache
	metrics *metrics.BookingMetrics
	log     zerolog.Logger
	now     func() time.Time
	loc     *time.Location

	defaultDays int
	maxDays     int
}

type Option func(*Service)

func WithCache(c AvailabilityCache) Option { return func(s *Service) { s.cache = c } }

func WithMetrics(m *metrics.BookingMetrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

// WithRange sets the default and maximum number of days an availability
// query covers.
func WithRange(defaultDays, maxDays int) Option {
	return func(s *Service) {
		s.defaultDays = defaultDays
		s.maxDays = maxDays
	}
}

func NewService(appts AppointmentRepository, doctors DoctorLookup, opts ...Option) *Service {
	s := &Service{
		appts:       appts,
		doctors:     doctors,
		log:         zerolog.Nop(),
		now:         time.Now,
		loc:         time.Local,
		defaultDays: 3,
		maxDays:     31,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) today() schedule.Date { return schedule.DateOf(s.now().In(s.loc)) }

// ---- availability ----

type AvailabilityResult struct {
	Doctor *model.Doctor         `json:"doctor"`
	Days   schedule.Availability `json:"availableDays"`
}

// Availability lists the doctor's slots between startDate and endDate
// (inclusive). Empty startDate means today; empty endDate covers the
// default number of days from startDate.
func (s *Service) Availability(ctx context.Context, doctorID, startDate, endDate string) (*AvailabilityResult, error) {
	from, to, err := s.dateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	doc, err := s.doctors.DoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doc.Bookable() {
		return nil, model.ErrDoctorUnavailable
	}

	if s.cache != nil {
		if av, ok := s.cache.Get(ctx, doc.ID, from, to); ok {
			s.metrics.ObserveAvailability(true)
			return &AvailabilityResult{Doctor: doc, Days: av.ClosePast(s.now(), s.loc)}, nil
		}
	}
	s.metrics.ObserveAvailability(false)

	booked, err := s.appts.ListAppointments(ctx, model.AppointmentFilter{
		DoctorID: doc.ID, From: from, To: to, Active: true,
	})
	if err != nil {
		return nil, err
	}
	keys := make([]schedule.SlotKey, 0, len(booked))
	for i := range booked {
		keys = append(keys, booked[i].Slot())
	}

	av := schedule.Resolve(schedule.Slots(doc.Schedule, doc.AppointmentDuration, from, to), keys)
	if s.cache != nil {
		s.cache.Set(ctx, doc.ID, from, to, av)
	}
	// slots that already started cannot be booked
	return &AvailabilityResult{Doctor: doc, Days: av.ClosePast(s.now(), s.loc)}, nil
}

func (s *Service) dateRange(startDate, endDate string) (from, to schedule.Date, err error) {
	from = s.today()
	if startDate != "" {
		if from, err = schedule.ParseDate(startDate); err != nil {
			return from, to, model.Errorf(model.CodeValidation, "startDate: %v", err)
		}
	}
	to = from.AddDays(s.defaultDays - 1)
	if endDate != "" {
		if to, err = schedule.ParseDate(endDate); err != nil {
			return from, to, model.Errorf(model.CodeValidation, "endDate: %v", err)
		}
	}
	if to.Before(from) {
		return from, to, model.Errorf(model.CodeValidation, "endDate must not be before startDate")
	}
	if from.DaysUntil(to) >= s.maxDays {
		return from, to, model.Errorf(model.CodeValidation, "date range may cover at most %d days", s.maxDays)
	}
	return from, to, nil
}

// ---- booking ----

type BookRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"motivoConsulta"`
	Notes    string `json:"notas"`
}

// Book creates an AGENDADA appointment for the calling patient. Checks run
// in order: doctor bookable, slot legitimate, slot free.
func (s *Service) Book(ctx context.Context, sess model.Session, req BookRequest) (*model.Appointment, error) {
	a, err := s.book(ctx, sess, req)
	s.metrics.ObserveBooking(outcome(err))
	return a, err
}

func (s *Service) book(ctx context.Context, sess model.Session, req BookRequest) (*model.Appointment, error) {
	if !sess.Is(model.RolePatient) {
		return nil, model.Errorf(model.CodeForbidden, "only patients can book appointments")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, model.Errorf(model.CodeValidation, "doctorId required")
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, model.Errorf(model.CodeValidation, "date: %v", err)
	}
	at, err := schedule.ParseClock(req.Time)
	if err != nil {
		return nil, model.Errorf(model.CodeValidation, "time: %v", err)
	}

	doc, err := s.doctors.DoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doc.Bookable() {
		return nil, model.ErrDoctorUnavailable
	}

	if !schedule.IsBoundary(doc.Schedule, doc.AppointmentDuration, date, at) {
		return nil, model.ErrInvalidSlot
	}
	if date.At(at, s.loc).Before(s.now()) {
		return nil, model.Errorf(model.CodeInvalidSlot, "slot %s %s is in the past", date, at)
	}

	slot := schedule.SlotKey{Date: date, Start: at}
	// cheap pre-check; the store still decides the race
	if taken, err := s.appts.SlotTaken(ctx, doc.ID, slot); err != nil {
		return nil, err
	} else if taken {
		return nil, model.ErrSlotConflict
	}

	now := s.now()
	a := &model.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  doc.ID,
		PatientID: sess.UserID,
		Date:      date,
		StartTime: at,
		EndTime:   at.Add(doc.AppointmentDuration),
		Status:    model.StatusScheduled,
		Reason:    strings.TrimSpace(req.Reason),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.appts.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, model.ErrSlotConflict) {
			s.log.Info().Str("doctor_id", doc.ID).Str("slot", date.String()+" "+at.String()).Msg("booking lost slot race")
		}
		return nil, err
	}
	s.invalidate(ctx, doc.ID)

	s.log.Info().
		Str("appointment_id", a.ID).
		Str("doctor_id", doc.ID).
		Str("patient_id", a.PatientID).
		Str("date", date.String()).
		Str("time", at.String()).
		Msg("appointment booked")
	return a, nil
}

func outcome(err error) string {
	switch model.CodeOf(err) {
	case "":
		if err == nil {
			return "created"
		}
		return "error"
	case model.CodeSlotConflict:
		return "conflict"
	case model.CodeInvalidSlot:
		return "invalid_slot"
	case model.CodeDoctorUnavailable:
		return "doctor_unavailable"
	default:
		return "rejected"
	}
}

func (s *Service) invalidate(ctx context.Context, doctorID string) {
	if s.cache != nil {
		s.cache.InvalidateDoctor(ctx, doctorID)
	}
}

// ---- reads ----

type party struct {
	patient bool
	doctor  bool
	admin   bool
}

func (p party) any() bool { return p.patient || p.doctor || p.admin }

func (s *Service) partyOf(ctx context.Context, sess model.Session, a *model.Appointment) (party, error) {
	switch sess.Role {
	case model.RoleAdmin:
		return party{admin: true}, nil
	case model.RolePatient:
		return party{patient: a.PatientID == sess.UserID}, nil
	case model.RoleDoctor:
		doc, err := s.doctors.DoctorByUserID(ctx, sess.UserID)
		if errors.Is(err, model.ErrNotFound) {
			return party{}, nil
		}
		if err != nil {
			return party{}, err
		}
		return party{doctor: doc.ID == a.DoctorID}, nil
	}
	return party{}, nil
}

// load fetches an appointment visible to sess. Strangers get NotFound so
// existence is not leaked.
func (s *Service) load(ctx context.Context, sess model.Session, id string) (*model.Appointment, party, error) {
	a, err := s.appts.GetAppointment(ctx, id)
	if err != nil {
		return nil, party{}, err
	}
	p, err := s.partyOf(ctx, sess, a)
	if err != nil {
		return nil, party{}, err
	}
	if !p.any() {
		return nil, party{}, model.Errorf(model.CodeNotFound, "appointment not found")
	}
	return a, p, nil
}

func (s *Service) Get(ctx context.Context, sess model.Session, id string) (*model.Appointment, error) {
	a, _, err := s.load(ctx, sess, id)
	return a, err
}

// List returns the caller's appointments: a patient's own, a doctor's
// agenda, or everything for admins. status may be empty.
func (s *Service) List(ctx context.Context, sess model.Session, status string) ([]model.Appointment, error) {
	var f model.AppointmentFilter
	if status != "" {
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	switch sess.Role {
	case model.RolePatient:
		f.PatientID = sess.UserID
	case model.RoleDoctor:
		doc, err := s.doctors.DoctorByUserID(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		f.DoctorID = doc.ID
	case model.RoleAdmin:
	default:
		return nil, model.ErrForbidden
	}
	return s.appts.ListAppointments(ctx, f)
}

// ---- transitions ----

type UpdateRequest struct {
	Status *string `json:"estado"`
	Notes  *string `json:"notas"`
}

// Update applies a status change and/or a notes edit.
func (s *Service) Update(ctx context.Context, sess model.Session, id string, req UpdateRequest) (*model.Appointment, error) {
	if req.Status == nil && req.Notes == nil {
		return nil, model.Errorf(model.CodeValidation, "nothing to update")
	}
	a, p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	from := a.Status

	if req.Status != nil {
		to, err := model.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if err := transition(a, to, p); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		a.Notes = strings.TrimSpace(*req.Notes)
	}
	a.UpdatedAt = s.now()

	if err := s.appts.UpdateAppointment(ctx, a, from); err != nil {
		return nil, err
	}
	if a.Status != from {
		s.statusChanged(ctx, a, from)
	}
	return a, nil
}

// Cancel moves the appointment to CANCELADA and frees its slot.
func (s *Service) Cancel(ctx context.Context, sess model.Session, id, reason string) (*model.Appointment, error) {
	a, p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if err := transition(a, model.StatusCancelled, p); err != nil {
		return nil, err
	}
	a.CancellationReason = strings.TrimSpace(reason)
	a.UpdatedAt = s.now()

	if err := s.appts.UpdateAppointment(ctx, a, from); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, a, from)
	return a, nil
}

func (s *Service) statusChanged(ctx context.Context, a *model.Appointment, from model.Status) {
	s.metrics.ObserveStatusChange(string(a.Status))
	if !a.Status.Occupies() {
		s.invalidate(ctx, a.DoctorID)
	}
	s.log.Info().
		Str("appointment_id", a.ID).
		Str("from", string(from)).
		Str("to", string(a.Status)).
		Msg("appointment status changed")
}

// transition checks the lifecycle edge and who may take it, then applies it.
func transition(a *model.Appointment, to model.Status, p party) error {
	if !model.CanTransition(a.Status, to) {
		return model.Errorf(model.CodeInvalidTransition, "cannot move appointment from %s to %s", a.Status, to)
	}
	var ok bool
	switch to {
	case model.StatusCancelled:
		ok = p.doctor || p.patient
	case model.StatusCompleted, model.StatusNoShow, model.StatusScheduled, model.StatusConfirmed:
		ok = p.doctor || p.admin
	}
	if !ok {
		return model.Errorf(model.CodeForbidden, "not allowed to set status %s", to)
	}
	a.Status = to
	return nil
}

// ---- stats ----

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pendientes"`
	Scheduled int `json:"agendadas"`
	Completed int `json:"completadas"`
	Cancelled int `json:"canceladas"`
	NoShow    int `json:"noAsistio"`
}

// Stats counts appointments per status. Scheduled covers AGENDADA and
// CONFIRMADA.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.appts.CountAppointmentsByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for status, n := range counts {
		st.Total += n
		switch status {
		case model.StatusPending:
			st.Pending += n
		case model.StatusScheduled, model.StatusConfirmed:
			st.Scheduled += n
		case model.StatusCompleted:
			st.Completed += n
		case model.StatusCancelled:
			st.Cancelled += n
		case model.StatusNoShow:
			st.NoShow += n
		}
	}
	return st, nil
}

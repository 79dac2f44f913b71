package store

import (
	"context"
	"fmt"
	"strings"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

// CreateAppointment relies on the partial unique index over
// (doctor_id, date, start_time) of non-cancelled rows to pick one winner.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments
		 (id, doctor_id, patient_id, date, start_time, end_time, status, reason, notes)
		 VALUES ($1,$2,$3,$4::date,$5::time,$6::time,$7,$8,$9)`,
		a.ID, a.DoctorID, a.PatientID, a.Date.String(), a.StartTime.String(), a.EndTime.String(),
		a.Status, a.Reason, a.Notes,
	)
	if uniqueViolation(err, constraintSlot) {
		return model.ErrSlotConflict
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *Store) SlotTaken(ctx context.Context, doctorID string, slot schedule.SlotKey) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2::date AND start_time = $3::time
			  AND status <> 'CANCELADA')`,
		doctorID, slot.Date.String(), slot.Start.String(),
	).Scan(&exists)
	return exists, err
}

const appointmentSelect = `SELECT id, doctor_id, patient_id,
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	status, reason, notes, cancellation_reason, created_at, updated_at
	FROM appointments`

func scanAppointment(row scanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	var date, start, end string
	if err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &date, &start, &end,
		&a.Status, &a.Reason, &a.Notes, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Date, err = schedule.ParseDate(date); err != nil {
		return nil, err
	}
	if a.StartTime, err = schedule.ParseClock(start); err != nil {
		return nil, err
	}
	if a.EndTime, err = schedule.ParseClock(end); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, appointmentSelect+` WHERE id = $1`, id))
	if missingRow(err) {
		return nil, model.Errorf(model.CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Store) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.DoctorID != "" {
		add(`doctor_id = $%d`, f.DoctorID)
	}
	if f.PatientID != "" {
		add(`patient_id = $%d`, f.PatientID)
	}
	if f.Status != "" {
		add(`status = $%d`, f.Status)
	}
	if !f.From.IsZero() {
		add(`date >= $%d::date`, f.From.String())
	}
	if !f.To.IsZero() {
		add(`date <= $%d::date`, f.To.String())
	}
	if f.Active {
		conds = append(conds, `status <> 'CANCELADA'`)
	}

	q := appointmentSelect
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY date, start_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment, from model.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET status=$1, notes=$2, cancellation_reason=$3, updated_at=NOW()
		 WHERE id=$4 AND status=$5`,
		a.Status, a.Notes, a.CancellationReason, a.ID, from,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Errorf(model.CodeInvalidTransition, "appointment was changed by someone else")
	}
	return nil
}

func (s *Store) CountAppointmentsByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Status]int)
	for rows.Next() {
		var (
			st model.Status
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

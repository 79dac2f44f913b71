package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"doctor-appointments-api/internal/model"
	"doctor-appointments-api/internal/schedule"
)

const doctorSelect = `SELECT d.id, d.user_id, u.name, u.email, d.specialty, d.location,
	d.consultation_cost::text, d.appointment_duration, d.presentation, d.photo_url,
	d.status, d.profile_configured, d.created_at, d.updated_at
	FROM doctors d JOIN users u ON u.id = d.user_id`

func scanDoctor(row scanner) (*model.Doctor, error) {
	d := &model.Doctor{}
	var cost string
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Email, &d.Specialty, &d.Location,
		&cost, &d.AppointmentDuration, &d.Presentation, &d.PhotoURL,
		&d.Status, &d.ProfileConfigured, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.ConsultationCost, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("doctor %s cost %q: %w", d.ID, cost, err)
	}
	return d, nil
}

func (s *Store) doctorWhere(ctx context.Context, cond string, arg any) (*model.Doctor, error) {
	d, err := scanDoctor(s.pool.QueryRow(ctx, doctorSelect+` WHERE `+cond, arg))
	if missingRow(err) {
		return nil, model.Errorf(model.CodeNotFound, "doctor not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	if err := s.loadSchedules(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) DoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	return s.doctorWhere(ctx, `d.id = $1`, id)
}

func (s *Store) DoctorByUserID(ctx context.Context, userID string) (*model.Doctor, error) {
	return s.doctorWhere(ctx, `d.user_id = $1`, userID)
}

func (s *Store) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Specialty != "" {
		add(`d.specialty ILIKE $%d`, "%"+f.Specialty+"%")
	}
	if f.Location != "" {
		add(`d.location ILIKE $%d`, "%"+f.Location+"%")
	}
	if f.Status != "" {
		add(`d.status = $%d`, f.Status)
	}
	if f.BookableOnly {
		add(`d.status = $%d`, model.DoctorApproved)
		conds = append(conds, `d.profile_configured`)
	}

	q := doctorSelect
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY u.name`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*model.Doctor, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.loadSchedules(ctx, ptrs...); err != nil {
		return nil, err
	}
	return out, nil
}

// loadSchedules fills the weekly schedule of each doctor with one query.
func (s *Store) loadSchedules(ctx context.Context, docs ...*model.Doctor) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Doctor, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		d.Schedule = schedule.WeeklySchedule{}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT doctor_id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		 FROM doctor_schedules WHERE doctor_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			doctorID   string
			iso        int
			start, end string
		)
		if err := rows.Scan(&doctorID, &iso, &start, &end); err != nil {
			return err
		}
		day, err := schedule.WeekdayFromISO(iso)
		if err != nil {
			return err
		}
		var w schedule.Window
		if w.Start, err = schedule.ParseClock(start); err != nil {
			return err
		}
		if w.End, err = schedule.ParseClock(end); err != nil {
			return err
		}
		if d, ok := byID[doctorID]; ok {
			d.Schedule[day] = w
		}
	}
	return rows.Err()
}

// SaveDoctorProfile updates the profile row and replaces the schedule.
func (s *Store) SaveDoctorProfile(ctx context.Context, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE doctors
		 SET specialty=$1, location=$2, consultation_cost=$3::numeric, appointment_duration=$4,
		     presentation=$5, photo_url=$6, profile_configured=$7, updated_at=NOW()
		 WHERE id=$8`,
		d.Specialty, d.Location, d.ConsultationCost.String(), d.AppointmentDuration,
		d.Presentation, d.PhotoURL, d.ProfileConfigured, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Errorf(model.CodeNotFound, "doctor not found")
	}

	// replace schedule
	if _, err := tx.Exec(ctx, `DELETE FROM doctor_schedules WHERE doctor_id=$1`, d.ID); err != nil {
		return err
	}
	for _, day := range schedule.AllWeekdays {
		w, ok := d.Schedule.Window(day)
		if !ok {
			continue
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO doctor_schedules (doctor_id, day_of_week, start_time, end_time)
			 VALUES ($1,$2,$3::time,$4::time)`,
			d.ID, day.ISO(), w.Start.String(), w.End.String(),
		)
		if err != nil {
			return fmt.Errorf("insert schedule %s: %w", day, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) SetDoctorStatus(ctx context.Context, id string, st model.DoctorStatus, configured bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE doctors SET status=$1, profile_configured=$2, updated_at=NOW() WHERE id=$3`,
		st, configured, id,
	)
	if err != nil {
		return fmt.Errorf("set doctor status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Errorf(model.CodeNotFound, "doctor not found")
	}
	return nil
}

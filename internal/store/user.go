package store

import (
	"context"
	"fmt"

	"doctor-appointments-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
	)
	if uniqueViolation(err, constraintEmail) {
		return model.Errorf(model.CodeAlreadyExists, "registration failed")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateDoctorAccount inserts the user and its pending doctor record together.
func (s *Store) CreateDoctorAccount(ctx context.Context, u *model.User, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
	)
	if uniqueViolation(err, constraintEmail) {
		return model.Errorf(model.CodeAlreadyExists, "registration failed")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO doctors (id, user_id, appointment_duration, status, profile_configured)
		 VALUES ($1,$2,$3,$4,false)`,
		d.ID, u.ID, d.AppointmentDuration, d.Status,
	)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}

	return tx.Commit(ctx)
}

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if missingRow(err) {
		return nil, model.Errorf(model.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

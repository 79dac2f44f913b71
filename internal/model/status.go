package model

import "strings"

type Status string

const (
	StatusPending   Status = "PENDIENTE"
	StatusScheduled Status = "AGENDADA"
	StatusConfirmed Status = "CONFIRMADA"
	StatusCompleted Status = "COMPLETADA"
	StatusCancelled Status = "CANCELADA"
	StatusNoShow    Status = "NO_ASISTIO"
)

var AllStatuses = []Status{
	StatusPending, StatusScheduled, StatusConfirmed,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range AllStatuses {
		if v == st {
			return st, nil
		}
	}
	return "", Errorf(CodeValidation, "unknown status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Occupies reports whether an appointment in this status holds its slot.
func (s Status) Occupies() bool { return s != StatusCancelled }

var transitions = map[Status][]Status{
	StatusPending:   {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

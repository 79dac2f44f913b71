package schedule

import (
	"iter"
	"slices"
)

// Candidate is a generated slot start, before availability is known.
type Candidate struct {
	Date  Date
	Start Clock
}

func (c Candidate) Key() SlotKey { return SlotKey{Date: c.Date, Start: c.Start} }

// Slots yields every slot of ws between start and end inclusive, ordered by
// date then start time. Each window is cut into back-to-back slots of
// durationMin minutes; a remainder shorter than one slot is dropped.
func Slots(ws WeeklySchedule, durationMin int, start, end Date) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if durationMin <= 0 || start.After(end) {
			return
		}
		for d := start; !d.After(end); d = d.AddDays(1) {
			w, ok := ws.Window(d.Weekday())
			if !ok {
				continue
			}
			for t := w.Start; t.Add(durationMin) <= w.End; t = t.Add(durationMin) {
				if !yield(Candidate{Date: d, Start: t}) {
					return
				}
			}
		}
	}
}

// Generate collects Slots into a slice.
func Generate(ws WeeklySchedule, durationMin int, start, end Date) []Candidate {
	return slices.Collect(Slots(ws, durationMin, start, end))
}

// IsBoundary reports whether t starts a slot on date under ws.
func IsBoundary(ws WeeklySchedule, durationMin int, date Date, t Clock) bool {
	if durationMin <= 0 {
		return false
	}
	w, ok := ws.Window(date.Weekday())
	if !ok || t < w.Start || t.Add(durationMin) > w.End {
		return false
	}
	return int(t-w.Start)%durationMin == 0
}

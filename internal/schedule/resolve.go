package schedule

import (
	"iter"
	"time"
)

// SlotKey identifies a slot of one doctor.
type SlotKey struct {
	Date  Date
	Start Clock
}

type SlotStatus struct {
	Time      Clock `json:"time"`
	Available bool  `json:"available"`
}

type DayAvailability struct {
	Date  Date         `json:"date"`
	Slots []SlotStatus `json:"slots"`
}

// Availability is ordered by date; days without slots are left out.
type Availability []DayAvailability

// Resolve marks a candidate unavailable iff booked holds its exact date and
// start time. Callers pass only appointments that still occupy their slot.
func Resolve(candidates iter.Seq[Candidate], booked []SlotKey) Availability {
	taken := make(map[SlotKey]struct{}, len(booked))
	for _, k := range booked {
		taken[k] = struct{}{}
	}

	out := Availability{}
	for c := range candidates {
		if n := len(out); n == 0 || out[n-1].Date != c.Date {
			out = append(out, DayAvailability{Date: c.Date})
		}
		_, busy := taken[c.Key()]
		day := &out[len(out)-1]
		day.Slots = append(day.Slots, SlotStatus{Time: c.Start, Available: !busy})
	}
	return out
}

// ByDate indexes the result by "YYYY-MM-DD".
func (a Availability) ByDate() map[string][]SlotStatus {
	m := make(map[string][]SlotStatus, len(a))
	for _, d := range a {
		m[d.Date.String()] = d.Slots
	}
	return m
}

// Free counts available slots.
func (a Availability) Free() int {
	n := 0
	for _, d := range a {
		for _, s := range d.Slots {
			if s.Available {
				n++
			}
		}
	}
	return n
}

// ClosePast returns a copy of a with every slot starting before now marked
// unavailable. Slot times are read in loc.
func (a Availability) ClosePast(now time.Time, loc *time.Location) Availability {
	out := make(Availability, len(a))
	for i, d := range a {
		slots := make([]SlotStatus, len(d.Slots))
		for j, s := range d.Slots {
			if s.Available && d.Date.At(s.Time, loc).Before(now) {
				s.Available = false
			}
			slots[j] = s
		}
		out[i] = DayAvailability{Date: d.Date, Slots: slots}
	}
	return out
}

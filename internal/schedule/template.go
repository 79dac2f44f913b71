package schedule

import (
	"errors"
	"fmt"
)

// Window is the working interval [Start, End) of one weekday.
type Window struct {
	Start Clock
	End   Clock
}

func (w Window) Valid() bool {
	return w.Start.Valid() && w.End.Valid() && w.Start < w.End
}

// WeeklySchedule holds the window of each available weekday. A weekday
// missing from the map is unavailable.
type WeeklySchedule map[Weekday]Window

// Window returns the window for day, if the day is available.
func (ws WeeklySchedule) Window(day Weekday) (Window, bool) {
	w, ok := ws[day]
	return w, ok
}

// Available reports whether any weekday has a window.
func (ws WeeklySchedule) Available() bool { return len(ws) > 0 }

func (ws WeeklySchedule) Validate() error {
	for day, w := range ws {
		if !day.Valid() {
			return fmt.Errorf("invalid weekday %d", int(day))
		}
		if !w.Valid() {
			return fmt.Errorf("%s: start time %s must be before end time %s", day, w.Start, w.End)
		}
	}
	return nil
}

// Entry is the wire form of one available weekday.
type Entry struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

var ErrDuplicateDay = errors.New("day listed more than once")

// FromEntries converts the wire list into a WeeklySchedule. Days absent from
// the list are unavailable.
func FromEntries(entries []Entry) (WeeklySchedule, error) {
	ws := make(WeeklySchedule, len(entries))
	for _, e := range entries {
		day, err := ParseWeekday(e.Day)
		if err != nil {
			return nil, err
		}
		if _, dup := ws[day]; dup {
			return nil, fmt.Errorf("%s: %w", day, ErrDuplicateDay)
		}
		start, err := ParseClock(e.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		end, err := ParseClock(e.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		w := Window{Start: start, End: end}
		if !w.Valid() {
			return nil, fmt.Errorf("%s: start time %s must be before end time %s", day, start, end)
		}
		ws[day] = w
	}
	return ws, nil
}

// Entries lists the available days Monday..Sunday.
func (ws WeeklySchedule) Entries() []Entry {
	out := make([]Entry, 0, len(ws))
	for _, day := range AllWeekdays {
		w, ok := ws[day]
		if !ok {
			continue
		}
		out = append(out, Entry{Day: day.String(), StartTime: w.Start.String(), EndTime: w.End.String()})
	}
	return out
}

package schedule_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctor-appointments-api/internal/schedule"
)

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustClock(t *testing.T, s string) schedule.Clock {
	t.Helper()
	c, err := schedule.ParseClock(s)
	require.NoError(t, err)
	return c
}

func mondayOnly(t *testing.T, start, end string) schedule.WeeklySchedule {
	return schedule.WeeklySchedule{
		schedule.Monday: {Start: mustClock(t, start), End: mustClock(t, end)},
	}
}

func TestWeekdayParsing(t *testing.T) {
	tests := []struct {
		in   string
		want schedule.Weekday
	}{
		{"MONDAY", schedule.Monday},
		{"sunday", schedule.Sunday},
		{" Wednesday ", schedule.Wednesday},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := schedule.ParseWeekday(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := schedule.ParseWeekday("lunes")
	assert.Error(t, err)
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, schedule.Monday, schedule.WeekdayOf(time.Monday))
	assert.Equal(t, schedule.Sunday, schedule.WeekdayOf(time.Sunday))
	assert.Equal(t, schedule.Monday, mustDate(t, "2024-06-10").Weekday())

	d, err := schedule.WeekdayFromISO(7)
	require.NoError(t, err)
	assert.Equal(t, schedule.Sunday, d)
	_, err = schedule.WeekdayFromISO(0)
	assert.Error(t, err)
}

func TestClockAndDateFormats(t *testing.T) {
	assert.Equal(t, "08:05", mustClock(t, "08:05").String())
	assert.Equal(t, "2024-06-10", mustDate(t, "2024-06-10").String())
	assert.Equal(t, "2024-07-01", mustDate(t, "2024-06-30").AddDays(1).String())
	assert.Equal(t, 2, mustDate(t, "2024-06-10").DaysUntil(mustDate(t, "2024-06-12")))

	for _, bad := range []string{"8am", "25:00", "08:60", ""} {
		_, err := schedule.ParseClock(bad)
		assert.Error(t, err, bad)
	}
	for _, bad := range []string{"10/06/2024", "2024-13-01", ""} {
		_, err := schedule.ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestGenerateNineHourWindow(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	day := mustDate(t, "2024-06-10")

	slots := schedule.Generate(ws, 30, day, day)
	require.Len(t, slots, 18)
	assert.Equal(t, "08:00", slots[0].Start.String())
	assert.Equal(t, "16:30", slots[17].Start.String())
}

func TestGenerateDropsRemainder(t *testing.T) {
	ws := mondayOnly(t, "08:00", "08:50")
	day := mustDate(t, "2024-06-10")

	slots := schedule.Generate(ws, 20, day, day)
	require.Len(t, slots, 2)
	assert.Equal(t, "08:00", slots[0].Start.String())
	assert.Equal(t, "08:20", slots[1].Start.String())
}

func TestGenerateUnavailableDay(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	tuesday := mustDate(t, "2024-06-11")
	assert.Empty(t, schedule.Generate(ws, 30, tuesday, tuesday))
}

func TestGenerateDegenerateInputs(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	mon := mustDate(t, "2024-06-10")

	assert.Empty(t, schedule.Generate(ws, 0, mon, mon), "zero duration")
	assert.Empty(t, schedule.Generate(ws, 30, mon, mon.AddDays(-1)), "reversed range")
	assert.Empty(t, schedule.Generate(ws, 600, mon, mon), "slot longer than window")
	assert.Empty(t, schedule.Generate(nil, 30, mon, mon), "empty template")
}

func TestGenerateOrderedAcrossDays(t *testing.T) {
	ws := schedule.WeeklySchedule{
		schedule.Monday:  {Start: mustClock(t, "09:00"), End: mustClock(t, "10:00")},
		schedule.Tuesday: {Start: mustClock(t, "14:00"), End: mustClock(t, "15:00")},
	}
	slots := schedule.Generate(ws, 30, mustDate(t, "2024-06-10"), mustDate(t, "2024-06-17"))

	var got []string
	for _, s := range slots {
		got = append(got, s.Date.String()+" "+s.Start.String())
	}
	assert.Equal(t, []string{
		"2024-06-10 09:00", "2024-06-10 09:30",
		"2024-06-11 14:00", "2024-06-11 14:30",
		"2024-06-17 09:00", "2024-06-17 09:30",
	}, got)
}

func TestSlotsStopsEarly(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	day := mustDate(t, "2024-06-10")

	n := 0
	for range schedule.Slots(ws, 30, day, day) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestIsBoundary(t *testing.T) {
	ws := mondayOnly(t, "08:00", "09:00")
	mon := mustDate(t, "2024-06-10")

	tests := []struct {
		name string
		date schedule.Date
		at   string
		want bool
	}{
		{"first slot", mon, "08:00", true},
		{"last slot", mon, "08:30", true},
		{"misaligned", mon, "08:15", false},
		{"ends past window", mon, "09:00", false},
		{"before window", mon, "07:30", false},
		{"unavailable day", mon.AddDays(1), "08:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.IsBoundary(ws, 30, tt.date, mustClock(t, tt.at)))
		})
	}
}

func TestResolveMarksOnlyBookedSlot(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	mon := mustDate(t, "2024-06-10")

	booked := []schedule.SlotKey{{Date: mon, Start: mustClock(t, "09:00")}}
	av := schedule.Resolve(schedule.Slots(ws, 30, mon, mon), booked)

	require.Len(t, av, 1)
	require.Len(t, av[0].Slots, 18)
	for _, s := range av[0].Slots {
		if s.Time.String() == "09:00" {
			assert.False(t, s.Available)
		} else {
			assert.True(t, s.Available, s.Time.String())
		}
	}
	assert.Equal(t, 17, av.Free())
	assert.Len(t, av.ByDate()["2024-06-10"], 18)
}

func TestResolveIgnoresPartialOverlap(t *testing.T) {
	ws := mondayOnly(t, "08:00", "09:00")
	mon := mustDate(t, "2024-06-10")

	booked := []schedule.SlotKey{{Date: mon, Start: mustClock(t, "08:10")}}
	av := schedule.Resolve(schedule.Slots(ws, 30, mon, mon), booked)
	assert.Equal(t, 2, av.Free())
}

func TestClosePastMarksStartedSlots(t *testing.T) {
	ws := mondayOnly(t, "08:00", "17:00")
	mon := mustDate(t, "2024-06-10")
	tue := mustDate(t, "2024-06-11")
	ws[schedule.Tuesday] = schedule.Window{Start: mustClock(t, "08:00"), End: mustClock(t, "09:00")}

	av := schedule.Resolve(schedule.Slots(ws, 30, mon, tue), nil)
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	closed := av.ClosePast(now, time.UTC)

	// 16:00 and 16:30 on Monday plus both Tuesday slots
	assert.Equal(t, 4, closed.Free())
	day := closed.ByDate()["2024-06-10"]
	assert.False(t, day[0].Available)
	assert.False(t, day[15].Available)
	assert.True(t, day[16].Available, "a slot starting now is still bookable")

	// the receiver is left untouched
	assert.Equal(t, 20, av.Free())
}

func TestAvailabilityJSON(t *testing.T) {
	ws := mondayOnly(t, "08:00", "09:00")
	mon := mustDate(t, "2024-06-10")
	av := schedule.Resolve(schedule.Slots(ws, 30, mon, mon), nil)

	b, err := json.Marshal(av)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2024-06-10","slots":[
		{"time":"08:00","available":true},
		{"time":"08:30","available":true}]}]`, string(b))

	var back schedule.Availability
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, av, back)
}

func TestScheduleEntriesRoundTrip(t *testing.T) {
	in := []schedule.Entry{
		{Day: "MONDAY", StartTime: "08:00", EndTime: "12:00"},
		{Day: "WEDNESDAY", StartTime: "14:00", EndTime: "18:30"},
		{Day: "SATURDAY", StartTime: "09:00", EndTime: "11:00"},
	}
	ws, err := schedule.FromEntries(in)
	require.NoError(t, err)
	assert.Equal(t, in, ws.Entries())

	_, ok := ws.Window(schedule.Tuesday)
	assert.False(t, ok)
}

func TestFromEntriesRejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []schedule.Entry
	}{
		{"unknown day", []schedule.Entry{{Day: "FUNDAY", StartTime: "08:00", EndTime: "09:00"}}},
		{"bad time", []schedule.Entry{{Day: "MONDAY", StartTime: "8", EndTime: "09:00"}}},
		{"start after end", []schedule.Entry{{Day: "MONDAY", StartTime: "10:00", EndTime: "09:00"}}},
		{"empty window", []schedule.Entry{{Day: "MONDAY", StartTime: "10:00", EndTime: "10:00"}}},
		{"duplicate day", []schedule.Entry{
			{Day: "MONDAY", StartTime: "08:00", EndTime: "09:00"},
			{Day: "monday", StartTime: "10:00", EndTime: "11:00"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedule.FromEntries(tt.entries)
			assert.Error(t, err)
		})
	}
}

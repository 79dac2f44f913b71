package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctor-appointments-api/internal/schedule"
)

func newTestCache(t *testing.T) (*Availability, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewAvailability(rdb, 30*time.Second, zerolog.Nop()), mr
}

func sample(t *testing.T) (schedule.Date, schedule.Date, schedule.Availability) {
	from, err := schedule.ParseDate("2030-01-07")
	require.NoError(t, err)
	to := from.AddDays(2)
	ws := schedule.WeeklySchedule{schedule.Monday: {Start: 8 * 60, End: 9 * 60}}
	booked := []schedule.SlotKey{{Date: from, Start: 8 * 60}}
	return from, to, schedule.Resolve(schedule.Slots(ws, 30, from, to), booked)
}

func TestAvailabilityRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	from, to, av := sample(t)

	_, ok := c.Get(ctx, "doc-1", from, to)
	assert.False(t, ok)

	c.Set(ctx, "doc-1", from, to, av)
	got, ok := c.Get(ctx, "doc-1", from, to)
	require.True(t, ok)
	assert.Equal(t, av, got)
}

func TestAvailabilityExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	from, to, av := sample(t)

	c.Set(ctx, "doc-1", from, to, av)
	mr.FastForward(31 * time.Second)

	_, ok := c.Get(ctx, "doc-1", from, to)
	assert.False(t, ok)
}

func TestInvalidateDoctorOnlyTouchesThatDoctor(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	from, to, av := sample(t)

	c.Set(ctx, "doc-1", from, to, av)
	c.Set(ctx, "doc-1", from, from, av)
	c.Set(ctx, "doc-2", from, to, av)

	c.InvalidateDoctor(ctx, "doc-1")

	_, ok := c.Get(ctx, "doc-1", from, to)
	assert.False(t, ok)
	_, ok = c.Get(ctx, "doc-1", from, from)
	assert.False(t, ok)
	_, ok = c.Get(ctx, "doc-2", from, to)
	assert.True(t, ok)
	assert.Len(t, mr.Keys(), 1)
}

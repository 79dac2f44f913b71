// Package cache keeps resolved doctor availability in redis for a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"doctor-appointments-api/internal/schedule"
)

const keyPrefix = "availability:"

// Availability caches per doctor and date range. Redis failures are logged
// and treated as misses; the database stays the source of truth.
type Availability struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewAvailability(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Availability {
	return &Availability{rdb: rdb, ttl: ttl, log: log}
}

func key(doctorID string, from, to schedule.Date) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, doctorID, from, to)
}

func (c *Availability) Get(ctx context.Context, doctorID string, from, to schedule.Date) (schedule.Availability, bool) {
	raw, err := c.rdb.Get(ctx, key(doctorID, from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("availability cache get")
		return nil, false
	}
	var av schedule.Availability
	if err := json.Unmarshal(raw, &av); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("availability cache decode")
		return nil, false
	}
	return av, true
}

func (c *Availability) Set(ctx context.Context, doctorID string, from, to schedule.Date, av schedule.Availability) {
	raw, err := json.Marshal(av)
	if err != nil {
		c.log.Warn().Err(err).Msg("availability cache encode")
		return
	}
	if err := c.rdb.Set(ctx, key(doctorID, from, to), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("availability cache set")
	}
}

// InvalidateDoctor drops every cached range of the doctor.
func (c *Availability) InvalidateDoctor(ctx context.Context, doctorID string) {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+doctorID+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("availability cache scan")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("availability cache invalidate")
	}
}

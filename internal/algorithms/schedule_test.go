package algorithms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithinBuffer_Symmetric(t *testing.T) {
	booked := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{59 * time.Minute, -59 * time.Minute} {
		assert.True(t, WithinBuffer(booked, booked.Add(offset), DefaultPickupBuffer), offset.String())
	}
	for _, offset := range []time.Duration{61 * time.Minute, -61 * time.Minute} {
		assert.False(t, WithinBuffer(booked, booked.Add(offset), DefaultPickupBuffer), offset.String())
	}
}

func TestWithinBuffer_InclusiveEdges(t *testing.T) {
	booked := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, WithinBuffer(booked, booked.Add(time.Hour), DefaultPickupBuffer))
	assert.True(t, WithinBuffer(booked, booked.Add(-time.Hour), DefaultPickupBuffer))
	assert.False(t, WithinBuffer(booked, booked.Add(time.Hour+time.Second), DefaultPickupBuffer))
}

func TestBufferWindow(t *testing.T) {
	at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	from, to := BufferWindow(at, DefaultPickupBuffer)
	assert.Equal(t, at.Add(-time.Hour), from)
	assert.Equal(t, at.Add(time.Hour), to)
}

func TestFindCollision(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	booked := []time.Time{base.Add(-3 * time.Hour), base}

	hit, ok := FindCollision(booked, base.Add(30*time.Minute), DefaultPickupBuffer)
	assert.True(t, ok)
	assert.Equal(t, base, hit)

	_, ok = FindCollision(booked, base.Add(2*time.Hour), DefaultPickupBuffer)
	assert.False(t, ok)
}

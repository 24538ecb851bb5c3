package algorithms

import "time"

// DefaultPickupBuffer - минимальный интервал между вывозами одной стороны
const DefaultPickupBuffer = time.Hour

// BufferWindow возвращает окно [at-buffer, at+buffer], обе границы включены
func BufferWindow(at time.Time, buffer time.Duration) (time.Time, time.Time) {
	return at.Add(-buffer), at.Add(buffer)
}

// WithinBuffer - существующий вывоз попадает в окно кандидата.
// Проверка симметрична и включает границы.
func WithinBuffer(existing, candidate time.Time, buffer time.Duration) bool {
	diff := existing.Sub(candidate)
	if diff < 0 {
		diff = -diff
	}
	return diff <= buffer
}

// FindCollision возвращает первое занятое время, пересекающееся с кандидатом
func FindCollision(booked []time.Time, candidate time.Time, buffer time.Duration) (time.Time, bool) {
	for _, t := range booked {
		if WithinBuffer(t, candidate, buffer) {
			return t, true
		}
	}
	return time.Time{}, false
}

// Package clock предоставляет подменяемый источник текущего времени.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущий момент.
type Clock interface {
	Now() time.Time
}

// Real системные часы.
type Real struct{}

// Now возвращает time.Now().
func (Real) Now() time.Time { return time.Now() }

// Fixed часы для тестов, показывающие заданный момент.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed создаёт часы, остановленные на now.
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now возвращает установленный момент.
func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set переставляет часы.
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Advance сдвигает часы на d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

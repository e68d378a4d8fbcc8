package dispatch

import (
	"sync"
	"time"

	"citywatch-worker/internal/models"
)

// CooldownLedger tracks the last time a notification went out per
// (label, recipient) pair. Cardinality is bounded by labels x recipients,
// so entries are never evicted.
type CooldownLedger struct {
	mu       sync.Mutex
	lastSent map[models.CooldownKey]time.Time
}

func NewCooldownLedger() *CooldownLedger {
	return &CooldownLedger{
		lastSent: make(map[models.CooldownKey]time.Time),
	}
}

// Reserve atomically checks eligibility and records the send time when
// eligible. Holding the mutex across both steps is what keeps two
// concurrent frames from passing the check for the same key.
//
// A key with no prior entry is always eligible. A prior entry is eligible
// only when strictly more than window has passed; a resend exactly at the
// boundary stays suppressed.
func (l *CooldownLedger) Reserve(key models.CooldownKey, now time.Time, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastSent[key]; ok && now.Sub(last) <= window {
		return false
	}
	l.lastSent[key] = now
	return true
}

// IsEligible reports whether a send for key would currently be allowed,
// without reserving it. Dispatch uses Reserve; this read-only form exists
// for inspection endpoints and tests.
func (l *CooldownLedger) IsEligible(key models.CooldownKey, now time.Time, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastSent[key]
	if !ok {
		return true
	}
	return now.Sub(last) > window
}

// MarkSent unconditionally overwrites the last send time for key.
func (l *CooldownLedger) MarkSent(key models.CooldownKey, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSent[key] = now
}

// Len returns the number of tracked (label, recipient) pairs.
func (l *CooldownLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSent)
}

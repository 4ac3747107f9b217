package recycler

import (
	"time"

	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
)

// IsEligible decides whether a contact may return to NEW right now under the
// given policy. Pure and deterministic: no clock reads, no side effects.
//
// The terminal check is intentionally independent of the policy's outcome
// set, so a misconfigured policy can never recycle an appointment or a
// refusal.
func IsEligible(c contacts.Contact, p lists.RecyclePolicy, now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if c.Disposition.TerminalForRecycling() {
		return false
	}
	if !p.Eligible(c.Disposition) {
		return false
	}
	if c.Locked(now) {
		return false
	}
	if now.Sub(c.LastDispositionAt) < p.Delay() {
		return false
	}
	return true
}

// RecycleETA reports how long until the contact becomes eligible for
// automatic recycling, for display ("auto-recycle in N minutes"). ok is
// false when the contact is not on an auto-recycle trajectory at all
// (policy off, outcome not eligible, terminal, or locked). A zero duration
// with ok=true means the contact is due now.
func RecycleETA(c contacts.Contact, p lists.RecyclePolicy, now time.Time) (time.Duration, bool) {
	if !p.Enabled {
		return 0, false
	}
	if c.Disposition.TerminalForRecycling() {
		return 0, false
	}
	if !p.Eligible(c.Disposition) {
		return 0, false
	}
	if c.Locked(now) {
		return 0, false
	}
	remaining := p.Delay() - now.Sub(c.LastDispositionAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

package daylock

import (
	"errors"
	"strings"
	"time"

	"github.com/contribution-ledger/internal/domain/shared"
)

var (
	ErrMissingJustification = errors.New("unlock justification cannot be empty")
	ErrEmptyActor           = errors.New("actor reference cannot be empty")
)

// DayLock holds the write permission state of one calendar day.
// A day without a persisted DayLock is implicitly unlocked.
type DayLock struct {
	Date                time.Time  `json:"date"`
	Locked              bool       `json:"locked"`
	LockedAt            *time.Time `json:"locked_at,omitempty"`
	LockedBy            string     `json:"locked_by,omitempty"`
	UnlockJustification string     `json:"unlock_justification,omitempty"`
	UnlockedBy          string     `json:"unlocked_by,omitempty"`
	UnlockedAt          *time.Time `json:"unlocked_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Unlocked returns the implicit state of a day that has never been locked
func Unlocked(date time.Time) *DayLock {
	return &DayLock{Date: shared.NormalizeDate(date)}
}

// Lock transitions the day to locked. No justification is needed.
func (d *DayLock) Lock(actorRef string, at time.Time) error {
	if strings.TrimSpace(actorRef) == "" {
		return ErrEmptyActor
	}
	if d.Locked {
		return ErrAlreadyLocked{Date: d.Date, LockedAt: d.lockedAt()}
	}

	at = at.UTC()
	d.Locked = true
	d.LockedAt = &at
	d.LockedBy = actorRef
	d.UpdatedAt = at
	return nil
}

// Unlock transitions a locked day back to unlocked, recording who and why.
// The justification is checked before the state so an empty one is always rejected.
func (d *DayLock) Unlock(actorRef, justification string, at time.Time) error {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return ErrMissingJustification
	}
	if strings.TrimSpace(actorRef) == "" {
		return ErrEmptyActor
	}
	if !d.Locked {
		return ErrNotLocked{Date: d.Date}
	}

	at = at.UTC()
	d.Locked = false
	d.UnlockJustification = justification
	d.UnlockedBy = actorRef
	d.UnlockedAt = &at
	d.UpdatedAt = at
	return nil
}

// CheckWritable returns ErrDayLocked when entries may not be posted to the day
func (d *DayLock) CheckWritable() error {
	if d.Locked {
		return ErrDayLocked{Date: d.Date, LockedAt: d.lockedAt()}
	}
	return nil
}

func (d *DayLock) lockedAt() time.Time {
	if d.LockedAt == nil {
		return time.Time{}
	}
	return *d.LockedAt
}

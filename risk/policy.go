package risk

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPledge is the sentence that must be retyped the day after a lock.
const DefaultPledge = "I promise not to repeat the same mistake"

type Policy struct {
	// Circuit breaker: completed losses that lock the day.
	MaxLossesPerDay int // 2

	// Exact text required to resume the day after a lock.
	Pledge string

	// How often stale locks are purged while running.
	SweepInterval time.Duration // 1m

	// Gap between closing the loss disclosure and raising the lock alert.
	LockAlertDelay time.Duration // 300ms
}

func DefaultPolicy() Policy {
	return Policy{
		MaxLossesPerDay: 2,
		Pledge:          DefaultPledge,
		SweepInterval:   time.Minute,
		LockAlertDelay:  300 * time.Millisecond,
	}
}

func (p Policy) Validate() error {
	if p.MaxLossesPerDay < 1 {
		return fmt.Errorf("max losses per day must be at least 1, got %d", p.MaxLossesPerDay)
	}
	if strings.TrimSpace(p.Pledge) == "" {
		return fmt.Errorf("pledge text is required")
	}
	if p.Pledge != strings.TrimSpace(p.Pledge) {
		return fmt.Errorf("pledge text must not start or end with whitespace")
	}
	if p.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if p.LockAlertDelay < 0 {
		return fmt.Errorf("lock alert delay must not be negative")
	}
	return nil
}

package risk

import (
	"github.com/rustyeddy/tradelock/clock"
)

// Level is how loudly a violation is reported to the user.
type Level string

const (
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Violation is a rejected user action. State is never changed when one is
// returned. Violations compare by Code, so errors.Is works against the
// exported values below.
type Violation struct {
	Code  string `json:"code"`
	Msg   string `json:"message"`
	Level Level  `json:"level"`
}

func (v *Violation) Error() string { return v.Msg }

func (v *Violation) Is(target error) bool {
	t, ok := target.(*Violation)
	return ok && t.Code == v.Code
}

func violation(code, msg string, lvl Level) *Violation {
	return &Violation{Code: code, Msg: msg, Level: lvl}
}

var (
	ErrNotToday           = violation("NOT_TODAY", "only today's trades can be edited", Warning)
	ErrLocked             = violation("DAY_LOCKED", "today is locked after too many losses, try again tomorrow", Error)
	ErrPledgeRequired     = violation("PLEDGE_REQUIRED", "type the pledge before trading today", Error)
	ErrUseDisclosure      = violation("USE_LOSS_DISCLOSURE", "a loss has to be recorded with its reason", Warning)
	ErrReasonRequired     = violation("REASON_REQUIRED", "write down why this trade lost", Error)
	ErrConfessionRequired = violation("CONFESSION_REQUIRED", "tick the confession before recording a second loss", Error)
	ErrNoPendingLoss      = violation("NO_PENDING_LOSS", "no loss is waiting for a reason", Warning)
	ErrPledgeMismatch     = violation("PLEDGE_MISMATCH", "type the pledge exactly as shown", Error)
	ErrPledgeNotRequired  = violation("PLEDGE_NOT_REQUIRED", "no pledge is due today", Warning)
	ErrInvalidAmount      = violation("INVALID_AMOUNT", "amount must be empty or a non-negative number", Error)
	ErrInvalidType        = violation("INVALID_TYPE", "type must be empty, profit or loss", Error)
	ErrUnknownField       = violation("UNKNOWN_FIELD", "only amount and type can be edited", Error)
	ErrTradeNotFound      = violation("TRADE_NOT_FOUND", "no trade at that position", Warning)
)

// EditState is what an edit of Target is checked against.
type EditState struct {
	Target        clock.Bucket
	Today         clock.Bucket
	Locked        bool
	PledgePending bool
}

// CheckEdit returns the first rule an edit would break, or nil. Editing any
// bucket but today's is refused regardless of lock state.
func CheckEdit(s EditState) error {
	if s.Target != s.Today {
		return ErrNotToday
	}
	if s.Locked {
		return ErrLocked
	}
	if s.PledgePending {
		return ErrPledgeRequired
	}
	return nil
}

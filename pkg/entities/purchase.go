package entities

import "fmt"

// PurchaseOutcome is the terminal state of one purchase attempt
type PurchaseOutcome string

const (
	OutcomeGranted             PurchaseOutcome = "GRANTED"
	OutcomeInsufficientBalance PurchaseOutcome = "INSUFFICIENT_BALANCE"
	OutcomeGrantFailed         PurchaseOutcome = "GRANT_FAILED"
	OutcomeStatAtMaximum       PurchaseOutcome = "STAT_AT_MAXIMUM"
)

// PurchaseResult describes how a purchase attempt ended
type PurchaseResult struct {
	Outcome   PurchaseOutcome `json:"outcome"`
	Offer     string          `json:"offer"`
	Required  int64           `json:"required,omitempty"`  // InsufficientBalance
	Available int64           `json:"available,omitempty"` // InsufficientBalance
	Cap       int             `json:"cap,omitempty"`       // StatAtMaximum
	Reason    string          `json:"reason,omitempty"`    // GrantFailed
	Balance   int64           `json:"balance"`             // Balance after the attempt
	AttemptID string          `json:"attemptId"`
}

// Granted builds the result of a committed purchase
func Granted(offer string, balance int64) PurchaseResult {
	return PurchaseResult{Outcome: OutcomeGranted, Offer: offer, Balance: balance}
}

// InsufficientBalance builds the result of a purchase the player could not afford
func InsufficientBalance(offer string, required, available int64) PurchaseResult {
	return PurchaseResult{
		Outcome:   OutcomeInsufficientBalance,
		Offer:     offer,
		Required:  required,
		Available: available,
		Balance:   available,
	}
}

// GrantFailed builds the result of a rolled back purchase
func GrantFailed(offer, reason string, balance int64) PurchaseResult {
	return PurchaseResult{Outcome: OutcomeGrantFailed, Offer: offer, Reason: reason, Balance: balance}
}

// StatAtMaximum builds the result of a stat purchase refused by its cap
func StatAtMaximum(offer string, limit int, balance int64) PurchaseResult {
	return PurchaseResult{Outcome: OutcomeStatAtMaximum, Offer: offer, Cap: limit, Balance: balance}
}

// IsGranted reports whether points were debited and the reward handed out
func (r PurchaseResult) IsGranted() bool {
	return r.Outcome == OutcomeGranted
}

func (r PurchaseResult) String() string {
	switch r.Outcome {
	case OutcomeGranted:
		return fmt.Sprintf("granted %s, balance %d", r.Offer, r.Balance)
	case OutcomeInsufficientBalance:
		return fmt.Sprintf("insufficient balance for %s: required %d, available %d", r.Offer, r.Required, r.Available)
	case OutcomeGrantFailed:
		return fmt.Sprintf("grant of %s failed: %s", r.Offer, r.Reason)
	case OutcomeStatAtMaximum:
		return fmt.Sprintf("%s refused: stat cap %d", r.Offer, r.Cap)
	default:
		return string(r.Outcome)
	}
}

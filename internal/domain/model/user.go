package model

import (
	"strings"
	"time"
)

// User is the slice of the account record the payment flow touches:
// buyer contact details sent to the gateway, and the premium entitlement
// mutated on successful reconciliation.
type User struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	IsPremium     bool
	PremiumExpiry *time.Time
	CreatedAt     time.Time
}

// BuyerName returns the display name the gateway expects, falling back to
// the email address when no profile name exists.
func (u *User) BuyerName() (first, last string) {
	first = strings.TrimSpace(u.FirstName)
	if first == "" {
		first = u.Email
	}
	return first, strings.TrimSpace(u.LastName)
}

// HasActivePremium checks the entitlement against the given instant.
// Expiry is set at grant time; readers are expected to compare it to now.
func (u *User) HasActivePremium(now time.Time) bool {
	return u.IsPremium && u.PremiumExpiry != nil && u.PremiumExpiry.After(now)
}

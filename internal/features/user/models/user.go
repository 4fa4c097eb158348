package models

import (
	"slices"
	"strconv"
	"time"
)

// Tier is the account privilege level.
type Tier string

const (
	TierOwner    Tier = "owner"
	TierPremium  Tier = "premium"
	TierStandard Tier = "standard"
)

func (t Tier) Valid() bool {
	switch t {
	case TierOwner, TierPremium, TierStandard:
		return true
	}
	return false
}

// Unlimited reports whether the tier is exempt from the daily limit.
func (t Tier) Unlimited() bool {
	return t == TierOwner || t == TierPremium
}

// PlaceholderName is stored when the transport reports no display name.
const PlaceholderName = "Unknown"

// User is one human identity across every transport identifier it was seen with.
// @Description Bot user
type User struct {
	ID             int64      `json:"id" example:"17"`
	PrimaryID      string     `json:"primary_id" example:"6281234567890@s.whatsapp.net"`
	AlternateIDs   []string   `json:"alternate_ids" example:"123456789012345@lid"`
	DisplayName    string     `json:"display_name" example:"Budi"`
	Tier           Tier       `json:"tier" example:"standard" enums:"owner,premium,standard"`
	Balance        int64      `json:"balance" example:"50"`
	BonusCredits   int64      `json:"bonus_credits" example:"100"`
	DailyLimit     int        `json:"daily_limit" example:"30"`
	LimitUsed      int        `json:"limit_used" example:"4"`
	LastLimitReset time.Time  `json:"last_limit_reset"`
	LastCommandAt  *time.Time `json:"last_command_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Owns reports whether id is the user's primary or one of its alternates.
func (u *User) Owns(id string) bool {
	return u.PrimaryID == id || slices.Contains(u.AlternateIDs, id)
}

// Identifiers returns the primary id followed by the alternates.
func (u *User) Identifiers() []string {
	return append([]string{u.PrimaryID}, u.AlternateIDs...)
}

// LimitInfo summarises a user's daily quota for display.
type LimitInfo struct {
	Unlimited bool `json:"unlimited"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"`
}

func (l LimitInfo) String() string {
	if l.Unlimited {
		return "∞/∞"
	}
	return strconv.Itoa(l.Remaining) + "/" + strconv.Itoa(l.Total)
}

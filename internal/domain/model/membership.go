package model

import (
	"time"

	"course-marketplace/internal/domain"
)

// Tier is the membership duration class.
type Tier string

const (
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
	TierYearly  Tier = "yearly"
)

var tierDays = map[Tier]int{
	TierWeekly:  7,
	TierMonthly: 30,
	TierYearly:  365,
}

// Tiers lists tiers in display order.
func Tiers() []Tier { return []Tier{TierWeekly, TierMonthly, TierYearly} }

func (t Tier) Valid() bool {
	_, ok := tierDays[t]
	return ok
}

func (t Tier) Days() int { return tierDays[t] }

// Duration returns the access window a tier grants.
func (t Tier) Duration() time.Duration {
	return time.Duration(tierDays[t]) * 24 * time.Hour
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", domain.ErrInvalidArgument
	}
	return t, nil
}

// Membership is an all-access pass. Active is the flag written at grant time;
// ActiveAt is what callers must branch on.
type Membership struct {
	Tier             Tier
	ActivatedAt      time.Time
	ExpiresAt        time.Time
	Active           bool
	PaymentRequestID string
}

// NewMembership activates tier at now.
func NewMembership(tier Tier, now time.Time, requestID string) (*Membership, error) {
	if !tier.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Membership{
		Tier:             tier,
		ActivatedAt:      now,
		ExpiresAt:        now.Add(tier.Duration()),
		Active:           true,
		PaymentRequestID: requestID,
	}, nil
}

// ActiveAt reports whether the membership still grants access at now.
func (m *Membership) ActiveAt(now time.Time) bool {
	return m != nil && m.ExpiresAt.After(now)
}

// MembershipPlan is a purchasable tier with its configured price.
type MembershipPlan struct {
	Tier         Tier  `json:"tier"`
	DurationDays int   `json:"duration_days"`
	Price        int64 `json:"price"`
}

// NewMembershipPlans builds the plan list from tier prices, skipping tiers without a price.
func NewMembershipPlans(prices map[Tier]int64) []MembershipPlan {
	out := make([]MembershipPlan, 0, len(tierDays))
	for _, t := range Tiers() {
		p, ok := prices[t]
		if !ok || p <= 0 {
			continue
		}
		out = append(out, MembershipPlan{Tier: t, DurationDays: t.Days(), Price: p})
	}
	return out
}

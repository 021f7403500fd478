package model

import "time"

// Place selects which of the two balances of an account an operation uses.
type Place string

const (
	PlaceWallet Place = "wallet"
	PlaceBank   Place = "bank"
)

// Valid reports whether p names a known balance.
func (p Place) Valid() bool {
	return p == PlaceWallet || p == PlaceBank
}

// Reward names a timed reward whose last claim is tracked on the account.
type Reward string

const (
	RewardWork    Reward = "work"
	RewardBeg     Reward = "beg"
	RewardHourly  Reward = "hourly"
	RewardDaily   Reward = "daily"
	RewardWeekly  Reward = "weekly"
	RewardMonthly Reward = "monthly"
	RewardYearly  Reward = "yearly"
)

// Fixed cooldowns of the calendar rewards. They are plain durations, not
// calendar-aware: a "month" is always 30 days.
const (
	HourlyCooldown  = time.Hour
	DailyCooldown   = 24 * time.Hour
	WeeklyCooldown  = 7 * DailyCooldown
	MonthlyCooldown = 30 * DailyCooldown
	YearlyCooldown  = 365 * DailyCooldown
)

// Account is the balance record of one user.
// Claim timestamps are milliseconds since the Unix epoch; nil means never claimed.
type Account struct {
	ID          string   `json:"id"`
	Wallet      int64    `json:"wallet"`
	Bank        int64    `json:"bank"`
	Items       []string `json:"items"`
	LastWork    *int64   `json:"last_work,omitempty"`
	LastBeg     *int64   `json:"last_beg,omitempty"`
	LastHourly  *int64   `json:"last_hourly,omitempty"`
	LastDaily   *int64   `json:"last_daily,omitempty"`
	LastWeekly  *int64   `json:"last_weekly,omitempty"`
	LastMonthly *int64   `json:"last_monthly,omitempty"`
	LastYearly  *int64   `json:"last_yearly,omitempty"`
}

// NewAccount returns the default record for an id that was never written.
func NewAccount(id string) Account {
	return Account{ID: id, Items: []string{}}
}

// Balance returns the balance held in place.
func (a Account) Balance(place Place) int64 {
	if place == PlaceBank {
		return a.Bank
	}
	return a.Wallet
}

// SetBalance overwrites the balance held in place.
func (a *Account) SetBalance(place Place, v int64) {
	if place == PlaceBank {
		a.Bank = v
		return
	}
	a.Wallet = v
}

// HasItem reports whether the account owns at least one item called name.
func (a Account) HasItem(name string) bool {
	for _, it := range a.Items {
		if it == name {
			return true
		}
	}
	return false
}

// RemoveItem drops one occurrence of name and reports whether one was found.
func (a *Account) RemoveItem(name string) bool {
	for i, it := range a.Items {
		if it == name {
			a.Items = append(a.Items[:i:i], a.Items[i+1:]...)
			return true
		}
	}
	return false
}

// LastClaim returns the stored claim timestamp for r.
func (a Account) LastClaim(r Reward) *int64 {
	switch r {
	case RewardWork:
		return a.LastWork
	case RewardBeg:
		return a.LastBeg
	case RewardHourly:
		return a.LastHourly
	case RewardDaily:
		return a.LastDaily
	case RewardWeekly:
		return a.LastWeekly
	case RewardMonthly:
		return a.LastMonthly
	case RewardYearly:
		return a.LastYearly
	}
	return nil
}

// StampClaim records ms as the last claim of r.
func (a *Account) StampClaim(r Reward, ms int64) {
	switch r {
	case RewardWork:
		a.LastWork = &ms
	case RewardBeg:
		a.LastBeg = &ms
	case RewardHourly:
		a.LastHourly = &ms
	case RewardDaily:
		a.LastDaily = &ms
	case RewardWeekly:
		a.LastWeekly = &ms
	case RewardMonthly:
		a.LastMonthly = &ms
	case RewardYearly:
		a.LastYearly = &ms
	}
}

package domain

import "time"

// ExpiryStatus buckets an item by how soon it expires.
type ExpiryStatus string

const (
	ExpiryNone    ExpiryStatus = "none"
	ExpiryExpired ExpiryStatus = "expired"
	ExpiryUrgent  ExpiryStatus = "urgent"
	ExpiryWarning ExpiryStatus = "warning"
	ExpiryGood    ExpiryStatus = "good"
)

// ExpiringSoonDays is the horizon of the expiring-items alert.
const ExpiringSoonDays = 2

// DaysUntilExpiry returns whole calendar days from now's date to the item's
// expiry date, negative once expired. ok is false when there is no expiry date.
func (f *FoodItem) DaysUntilExpiry(now time.Time) (days int, ok bool) {
	if f.ExpiryDate == nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exp := time.Date(f.ExpiryDate.Year(), f.ExpiryDate.Month(), f.ExpiryDate.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24), true
}

func (f *FoodItem) ExpiryStatus(now time.Time) ExpiryStatus {
	days, ok := f.DaysUntilExpiry(now)
	switch {
	case !ok:
		return ExpiryNone
	case days < 0:
		return ExpiryExpired
	case days <= ExpiringSoonDays:
		return ExpiryUrgent
	case days <= 5:
		return ExpiryWarning
	default:
		return ExpiryGood
	}
}

// ExpiringSoon reports whether the item is expired or expires within
// ExpiringSoonDays.
func (f *FoodItem) ExpiringSoon(now time.Time) bool {
	days, ok := f.DaysUntilExpiry(now)
	return ok && days <= ExpiringSoonDays
}

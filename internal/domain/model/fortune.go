package model

import "time"

// DailyFortune is one day's content for one user, keyed by (user, date).
type DailyFortune struct {
	ID          int64
	UserID      string
	FortuneDate string // YYYY-MM-DD
	Category    string
	Zodiac      string
	Content     string
	CreatedAt   time.Time
}

// FortuneRecipient is the dispatch-job join row: a user who holds an
// active subscription and has content for today.
type FortuneRecipient struct {
	UserID   string
	LineName string
	FullName string
	Category string
	Zodiac   string
	Content  string
}

package model

import (
	"regexp"
	"strings"
	"time"

	"line-fortune-subscription/internal/domain"
)

// User is a domain entity representing a LINE member in our system.
// LineUserID is the verified subject from the identity provider and is
// immutable after registration; profile fields may change.
type User struct {
	ID         int64
	LineUserID string
	LineName   string
	FullName   string
	Phone      string
	BirthDate  string // YYYY-MM-DD
	Picture    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	thaiMobileRe = regexp.MustCompile(`^0[689]\d{8}$`)
	birthDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NewUser validates registration input and constructs a user.
func NewUser(subject, lineName, fullName, phone, birthDate, picture string) (*User, error) {
	if subject == "" {
		return nil, domain.ErrInvalidArgument
	}
	fullName = strings.TrimSpace(fullName)
	if len([]rune(fullName)) < 2 || len([]rune(fullName)) > 50 || strings.ContainsAny(fullName, "<>") {
		return nil, domain.ErrInvalidArgument
	}
	if !thaiMobileRe.MatchString(strings.TrimSpace(phone)) {
		return nil, domain.ErrInvalidArgument
	}
	birthDate = strings.TrimSpace(birthDate)
	if !birthDateRe.MatchString(birthDate) {
		return nil, domain.ErrInvalidArgument
	}
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil || born.After(time.Now()) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		LineUserID: subject,
		LineName:   lineName,
		FullName:   fullName,
		Phone:      strings.TrimSpace(phone),
		BirthDate:  birthDate,
		Picture:    picture,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.LineUserID == "" }

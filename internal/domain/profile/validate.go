package profile

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

var genders = map[Gender]struct{}{
	GenderFemale:      {},
	GenderMale:        {},
	GenderUndisclosed: {},
}

var statuses = map[RelationshipStatus]struct{}{
	StatusSingle:      {},
	StatusMarried:     {},
	StatusEngaged:     {},
	StatusDating:      {},
	StatusJustBrokeUp: {},
}

// Normalize trims free text fields and lowercases the enum fields.
func Normalize(p UserProfile) UserProfile {
	p.BirthPlace = strings.TrimSpace(p.BirthPlace)
	p.Gender = Gender(strings.ToLower(strings.TrimSpace(string(p.Gender))))
	p.RelationshipStatus = RelationshipStatus(strings.ToLower(strings.TrimSpace(string(p.RelationshipStatus))))
	if p.BirthTime != nil {
		bt := *p.BirthTime
		p.BirthTime = &bt
	}
	return p
}

// Validate checks the intake form the same way the form boundary does. now bounds the birth year.
func Validate(p UserProfile, now time.Time) error {
	if p.BirthMonth < 1 || p.BirthMonth > 12 {
		return invalid("Invalid Month (1-12)")
	}
	if p.BirthDay < 1 || p.BirthDay > 31 {
		return invalid("Invalid Day (1-31)")
	}
	currentYear := now.Year()
	if p.BirthYear < MinBirthYear || p.BirthYear > currentYear {
		return invalid(fmt.Sprintf("Invalid Year (%d-%d)", MinBirthYear, currentYear))
	}
	if bt := p.BirthTime; bt != nil {
		if bt.Hour < 0 || bt.Hour > 23 {
			return invalid("Invalid Hour (0-23)")
		}
		if bt.Minute < 0 || bt.Minute > 59 {
			return invalid("Invalid Minute (0-59)")
		}
	}
	if p.Gender != "" {
		if _, ok := genders[p.Gender]; !ok {
			return invalid("Invalid Gender")
		}
	}
	if utf8.RuneCountInString(p.BirthPlace) > MaxBirthPlaceLen {
		return invalid(fmt.Sprintf("Birth Place must be at most %d characters", MaxBirthPlaceLen))
	}
	if p.RelationshipStatus != "" {
		if _, ok := statuses[p.RelationshipStatus]; !ok {
			return invalid("Invalid Relationship Status")
		}
	}
	return nil
}

func invalid(message string) error {
	return apperrors.Wrap(apperrors.CodeValidation, message, nil)
}

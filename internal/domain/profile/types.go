package profile

// Gender options offered by the intake form.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderUndisclosed Gender = "prefer not to disclose"
)

// RelationshipStatus options offered by the intake form.
type RelationshipStatus string

const (
	StatusSingle      RelationshipStatus = "single"
	StatusMarried     RelationshipStatus = "married"
	StatusEngaged     RelationshipStatus = "engaged"
	StatusDating      RelationshipStatus = "dating"
	StatusJustBrokeUp RelationshipStatus = "just broke up"
)

// MaxBirthPlaceLen bounds the free text birth place.
const MaxBirthPlaceLen = 100

// MinBirthYear is the earliest accepted birth year.
const MinBirthYear = 1900

// BirthTime is the optional time of birth.
type BirthTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// UserProfile is the submitted intake form. It is replaced wholesale, never edited in place.
type UserProfile struct {
	BirthYear          int                `json:"birthYear"`
	BirthMonth         int                `json:"birthMonth"`
	BirthDay           int                `json:"birthDay"`
	BirthTime          *BirthTime         `json:"birthTime,omitempty"`
	Gender             Gender             `json:"gender,omitempty"`
	BirthPlace         string             `json:"birthPlace,omitempty"`
	RelationshipStatus RelationshipStatus `json:"relationshipStatus,omitempty"`
}

// BirthHour returns the hour of birth when known.
func (p UserProfile) BirthHour() (int, bool) {
	if p.BirthTime == nil {
		return 0, false
	}
	return p.BirthTime.Hour, true
}

// Equal reports whether two profiles describe the same person.
func Equal(a, b UserProfile) bool {
	if (a.BirthTime == nil) != (b.BirthTime == nil) {
		return false
	}
	if a.BirthTime != nil && *a.BirthTime != *b.BirthTime {
		return false
	}
	return a.BirthYear == b.BirthYear &&
		a.BirthMonth == b.BirthMonth &&
		a.BirthDay == b.BirthDay &&
		a.Gender == b.Gender &&
		a.BirthPlace == b.BirthPlace &&
		a.RelationshipStatus == b.RelationshipStatus
}

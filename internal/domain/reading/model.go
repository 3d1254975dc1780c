package reading

import (
	"time"

	"github.com/yanqian/astro-daily/internal/domain/zodiac"
)

// Response is the daily reading exactly as the reading endpoint returns it.
type Response struct {
	Zodiac           string             `json:"zodiac"`
	HourZodiac       string             `json:"hourZodiac,omitempty"`
	DominantElement  string             `json:"dominantElement"`
	ElementPercent   float64            `json:"elementPercent"`
	ElementalBalance map[string]float64 `json:"elementalBalance"`
	Reading          string             `json:"reading"`
	Date             string             `json:"date"`
}

// Chart returns the balance as ordered, coloured bar segments.
func (r Response) Chart() []zodiac.Segment {
	return zodiac.Chart(r.ElementalBalance)
}

// Source records where a Result came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
	SourceStale   Source = "stale"
	SourceLocal   Source = "local"
)

// Result wraps a reading with the advisory shown when it is not fresh from the network.
type Result struct {
	Reading    Response `json:"reading"`
	Source     Source   `json:"source"`
	Advisory   string   `json:"advisory,omitempty"`
	LastUpdate string   `json:"lastUpdate,omitempty"`
}

// Config wires runtime knobs for the reading domain.
type Config struct {
	// Location defines the calendar day used for refresh decisions. Nil means time.Local.
	Location        *time.Location
	LocalFallback   bool
	RefreshInterval time.Duration
}

// Advisories shown alongside still-usable data.
const (
	AdvisoryStale       = "Could not refresh data. Showing last saved reading."
	AdvisoryLocal       = "Could not connect to the server. Showing a locally generated reading."
	AdvisoryNotSaved    = "Reading could not be saved on this device."
	MessageNoConnection = "Could not connect to the server."
)

// isoLayout matches the millisecond precision UTC timestamps the web client stored.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

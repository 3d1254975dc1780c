package kv

import "context"

// Keys persisted by the client core.
const (
	KeyDailyReading = "astro_daily_reading"
	KeyLastUpdate   = "astro_last_update"
	KeyBirthProfile = "astro_app_birth_date"
)

// Store is the device-local key-value contract shared by the reading cache and the profile store.
// Get reports ok=false for missing keys; Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

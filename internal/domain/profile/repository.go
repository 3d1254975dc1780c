package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/kv"
	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

// Repository validates and persists the single user profile.
type Repository interface {
	Save(ctx context.Context, p UserProfile) (UserProfile, error)
	Load(ctx context.Context) (UserProfile, bool, error)
}

type repository struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository stores the profile under kv.KeyBirthProfile.
func NewRepository(store kv.Store, logger *slog.Logger) Repository {
	return &repository{
		store:  store,
		logger: logger.With("component", "profile.repository"),
		now:    time.Now,
	}
}

func (r *repository) Save(ctx context.Context, p UserProfile) (UserProfile, error) {
	p = Normalize(p)
	if err := Validate(p, r.now()); err != nil {
		return UserProfile{}, err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return UserProfile{}, fmt.Errorf("encode profile: %w", err)
	}
	if err := r.store.Set(ctx, kv.KeyBirthProfile, string(payload)); err != nil {
		return UserProfile{}, apperrors.Wrap(apperrors.CodeStore, "Could not save user profile. Please try again.", err)
	}
	r.logger.Info("profile saved", "birth_year", p.BirthYear, "has_birth_time", p.BirthTime != nil)
	return p, nil
}

// Load returns ok=false when nothing usable is stored. Corrupt entries are removed.
func (r *repository) Load(ctx context.Context) (UserProfile, bool, error) {
	raw, ok, err := r.store.Get(ctx, kv.KeyBirthProfile)
	if err != nil {
		return UserProfile{}, false, apperrors.Wrap(apperrors.CodeStore, "could not read user profile", err)
	}
	if !ok {
		return UserProfile{}, false, nil
	}
	p, err := decode(raw)
	if err != nil {
		r.logger.Warn("discarding unreadable stored profile", "error", err)
		if rmErr := r.store.Remove(ctx, kv.KeyBirthProfile); rmErr != nil {
			r.logger.Error("remove stored profile failed", "error", rmErr)
		}
		return UserProfile{}, false, nil
	}
	return p, true, nil
}

func decode(raw string) (UserProfile, error) {
	var wire struct {
		BirthYear          *int               `json:"birthYear"`
		BirthMonth         *int               `json:"birthMonth"`
		BirthDay           *int               `json:"birthDay"`
		BirthTime          *BirthTime         `json:"birthTime"`
		Gender             Gender             `json:"gender"`
		BirthPlace         string             `json:"birthPlace"`
		RelationshipStatus RelationshipStatus `json:"relationshipStatus"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return UserProfile{}, err
	}
	if wire.BirthYear == nil || wire.BirthMonth == nil || wire.BirthDay == nil {
		return UserProfile{}, fmt.Errorf("stored profile is missing birth date fields")
	}
	return UserProfile{
		BirthYear:          *wire.BirthYear,
		BirthMonth:         *wire.BirthMonth,
		BirthDay:           *wire.BirthDay,
		BirthTime:          wire.BirthTime,
		Gender:             wire.Gender,
		BirthPlace:         wire.BirthPlace,
		RelationshipStatus: wire.RelationshipStatus,
	}, nil
}

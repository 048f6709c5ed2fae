package memory

import (
	"context"
	"strings"
	"sync"

	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

// ProfileRepository stores user profiles in memory. Not suitable for production.
type ProfileRepository struct {
	mu   sync.RWMutex
	byID map[string]*domainuser.Profile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{byID: make(map[string]*domainuser.Profile)}
}

func (r *ProfileRepository) ByID(ctx context.Context, id string) (*domainuser.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byID[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domainuser.Profile) error {
	if profile == nil || strings.TrimSpace(profile.ID) == "" {
		return domainuser.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *profile
	r.byID[profile.ID] = &copied
	return nil
}

// PreferencesRepository stores notification opt-outs in memory.
type PreferencesRepository struct {
	mu     sync.RWMutex
	byUser map[string]domainuser.NotificationPreferences
}

func NewPreferencesRepository() *PreferencesRepository {
	return &PreferencesRepository{byUser: make(map[string]domainuser.NotificationPreferences)}
}

func (r *PreferencesRepository) ByUserID(ctx context.Context, userID string) (domainuser.NotificationPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if prefs, ok := r.byUser[userID]; ok {
		return prefs, nil
	}
	return domainuser.DefaultPreferences(userID), nil
}

func (r *PreferencesRepository) Save(ctx context.Context, prefs domainuser.NotificationPreferences) error {
	if strings.TrimSpace(prefs.UserID) == "" {
		return domainuser.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[prefs.UserID] = prefs
	return nil
}

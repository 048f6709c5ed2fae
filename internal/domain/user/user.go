package user

import (
	"context"
	"errors"
)

var (
	ErrIDRequired = errors.New("user: id is required")
	ErrNotFound   = errors.New("user: not found")
)

// Profile is the public identity of a marketplace user, plus the
// linked external notification identity when the user connected one.
type Profile struct {
	ID             string
	DisplayName    string
	AvatarURL      string
	TelegramChatID string
}

// NotificationPreferences gates out-of-band delivery per channel.
// New users are opted in; flags only record explicit opt-outs.
type NotificationPreferences struct {
	UserID           string
	PushChatMessages bool
	PushCartUpdates  bool
}

// DefaultPreferences returns the opt-in defaults for a user without
// a stored preferences row.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:           userID,
		PushChatMessages: true,
		PushCartUpdates:  true,
	}
}

type ProfileRepository interface {
	ByID(ctx context.Context, id string) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}

// PreferencesRepository stores opt-out flags. ByUserID returns the
// defaults when no row exists for the user.
type PreferencesRepository interface {
	ByUserID(ctx context.Context, userID string) (NotificationPreferences, error)
	Save(ctx context.Context, prefs NotificationPreferences) error
}

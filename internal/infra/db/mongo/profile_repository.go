package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection("profiles")}
}

type profileDocument struct {
	ID             string `bson:"_id"`
	DisplayName    string `bson:"display_name,omitempty"`
	AvatarURL      string `bson:"avatar_url,omitempty"`
	TelegramChatID string `bson:"telegram_chat_id,omitempty"`
}

func (r *ProfileRepository) ByID(ctx context.Context, id string) (*domainuser.Profile, error) {
	var doc profileDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return &domainuser.Profile{
		ID:             doc.ID,
		DisplayName:    doc.DisplayName,
		AvatarURL:      doc.AvatarURL,
		TelegramChatID: doc.TelegramChatID,
	}, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domainuser.Profile) error {
	if profile == nil || strings.TrimSpace(profile.ID) == "" {
		return domainuser.ErrIDRequired
	}
	doc := profileDocument{
		ID:             profile.ID,
		DisplayName:    profile.DisplayName,
		AvatarURL:      profile.AvatarURL,
		TelegramChatID: profile.TelegramChatID,
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// PreferencesRepository persists notification opt-outs; users without
// a row get the opt-in defaults.
type PreferencesRepository struct {
	col *mongo.Collection
}

func NewPreferencesRepository(db *mongo.Database) *PreferencesRepository {
	return &PreferencesRepository{col: db.Collection("notification_prefs")}
}

type preferencesDocument struct {
	UserID           string `bson:"_id"`
	PushChatMessages bool   `bson:"push_chat_messages"`
	PushCartUpdates  bool   `bson:"push_cart_updates"`
}

func (r *PreferencesRepository) ByUserID(ctx context.Context, userID string) (domainuser.NotificationPreferences, error) {
	var doc preferencesDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainuser.DefaultPreferences(userID), nil
		}
		return domainuser.NotificationPreferences{}, err
	}
	return domainuser.NotificationPreferences{
		UserID:           doc.UserID,
		PushChatMessages: doc.PushChatMessages,
		PushCartUpdates:  doc.PushCartUpdates,
	}, nil
}

func (r *PreferencesRepository) Save(ctx context.Context, prefs domainuser.NotificationPreferences) error {
	if strings.TrimSpace(prefs.UserID) == "" {
		return domainuser.ErrIDRequired
	}
	doc := preferencesDocument{
		UserID:           prefs.UserID,
		PushChatMessages: prefs.PushChatMessages,
		PushCartUpdates:  prefs.PushCartUpdates,
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.UserID}, bson.M{"$set": doc}, opts)
	return err
}

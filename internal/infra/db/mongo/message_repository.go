package mongo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

type MessageRepository struct {
	col *mongo.Collection

	mu        sync.Mutex
	lastMilli int64
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

// nextTimestamp returns a strictly increasing insert timestamp in
// UnixMilli. created_at is the sole ordering key and is stored at
// millisecond resolution, while ids are random: two inserts landing
// in the same millisecond would otherwise sort in arbitrary order.
func (r *MessageRepository) nextTimestamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC().UnixMilli()
	if now <= r.lastMilli {
		now = r.lastMilli + 1
	}
	r.lastMilli = now
	return now
}

// EnsureIndexes creates the lookup indexes the chat queries rely on.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	return err
}

type messageDocument struct {
	ID         string `bson:"_id"`
	SenderID   string `bson:"sender_id"`
	ReceiverID string `bson:"receiver_id"`
	Body       string `bson:"body"`
	ProductID  string `bson:"product_id,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
	IsRead     bool   `bson:"is_read"`
}

func (d messageDocument) toDomain() domainchat.Message {
	return domainchat.Message{
		ID:         d.ID,
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Body:       d.Body,
		ProductID:  d.ProductID,
		CreatedAt:  time.UnixMilli(d.CreatedAt).UTC(),
		IsRead:     d.IsRead,
	}
}

func (r *MessageRepository) Insert(ctx context.Context, params domainchat.NewMessageParams) (*domainchat.Message, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	doc := messageDocument{
		ID:         uuid.NewString(),
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Body:       params.Body,
		ProductID:  params.ProductID,
		CreatedAt:  r.nextTimestamp(),
		IsRead:     false,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	msg := doc.toDomain()
	return &msg, nil
}

func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
}

func (r *MessageRepository) Between(ctx context.Context, a, b, productID string) ([]domainchat.Message, error) {
	filter := pairFilter(a, b)
	if productID != "" {
		filter["product_id"] = productID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]domainchat.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

func (r *MessageRepository) Latest(ctx context.Context, a, b string) (*domainchat.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	var doc messageDocument
	if err := r.col.FindOne(ctx, pairFilter(a, b), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrNotFound
		}
		return nil, err
	}
	msg := doc.toDomain()
	return &msg, nil
}

func (r *MessageRepository) DistinctReceivers(ctx context.Context, senderID string) ([]string, error) {
	return r.distinct(ctx, "receiver_id", bson.M{"sender_id": senderID})
}

func (r *MessageRepository) DistinctSenders(ctx context.Context, receiverID string) ([]string, error) {
	return r.distinct(ctx, "sender_id", bson.M{"receiver_id": receiverID})
}

func (r *MessageRepository) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	values, err := r.col.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"receiver_id": receiverID, "sender_id": senderID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "is_read": false})
}

func (r *MessageRepository) CountUnreadFrom(ctx context.Context, receiverID, senderID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "sender_id": senderID, "is_read": false})
}

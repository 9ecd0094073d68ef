package repository

import (
	"context"

	"language_exchange_service/internal/chat/domain"
	errprocess "language_exchange_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository chat message persistence
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	// Delete only for rolling back an insert the session never recorded
	Delete(ctx context.Context, id string) error
	// Find timestamp ascending
	Find(ctx context.Context, chatID string, query domain.MessageQuery) ([]domain.ChatMessage, error)
	// MarkRead mark every unread message not sent by readerID, return the count
	MarkRead(ctx context.Context, chatID, readerID string, readAt int64) (int64, error)
}

type mongoMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository on chat_messages
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{coll: db.Collection("chat_messages")}
}

// EnsureMessageIndexes history scan index
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("chat_messages").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}

func (r *mongoMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return errprocess.Storage("insert chat message", err)
	}
	return nil
}

func (r *mongoMessageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errprocess.Storage("delete chat message", err)
	}
	return nil
}

func (r *mongoMessageRepository) Find(ctx context.Context, chatID string, query domain.MessageQuery) ([]domain.ChatMessage, error) {
	filter := bson.M{"chat_id": chatID}
	if query.After > 0 {
		filter["timestamp"] = bson.M{"$gt": query.After}
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errprocess.Storage("find chat messages", err)
	}
	messages := []domain.ChatMessage{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, errprocess.Storage("decode chat messages", err)
	}
	return messages, nil
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, chatID, readerID string, readAt int64) (int64, error) {
	filter := bson.M{
		"chat_id":   chatID,
		"sender_id": bson.M{"$ne": readerID},
		"read":      false,
	}
	update := bson.M{"$set": bson.M{"read": true, "read_at": readAt}}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, errprocess.Storage("mark messages read", err)
	}
	return res.ModifiedCount, nil
}

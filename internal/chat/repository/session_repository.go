package repository

import (
	"context"
	"errors"

	"language_exchange_service/internal/chat/domain"
	errprocess "language_exchange_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepository chat session persistence
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*domain.ChatSession, error)
	FindByPair(ctx context.Context, pairKey string) (*domain.ChatSession, error)
	// Insert returns CONCURRENCY_CONFLICT when the pair already exists
	Insert(ctx context.Context, session *domain.ChatSession) error
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error
	IncrementSessionCount(ctx context.Context, id string) error
	// RecordMessage update summary, activity and the recipient's unread counter.
	// CONCURRENCY_CONFLICT when the session already holds a message at or after last.Timestamp
	RecordMessage(ctx context.Context, session *domain.ChatSession, last domain.LastMessage, recipientID string) error
	ResetUnread(ctx context.Context, session *domain.ChatSession, userID string) error
	ListByParticipant(ctx context.Context, userID string, status domain.SessionStatus) ([]domain.ChatSession, error)
}

type mongoSessionRepository struct {
	coll *mongo.Collection
}

// NewMongoSessionRepository create a SessionRepository on chat_sessions
func NewMongoSessionRepository(db *mongo.Database) SessionRepository {
	return &mongoSessionRepository{coll: db.Collection("chat_sessions")}
}

// EnsureSessionIndexes unique pair index + participant lookups
func EnsureSessionIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("chat_sessions").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "participant_a", Value: 1}, {Key: "last_activity", Value: -1}}},
		{Keys: bson.D{{Key: "participant_b", Value: 1}, {Key: "last_activity", Value: -1}}},
	})
	return err
}

func (r *mongoSessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := r.coll.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errprocess.NotFound("chat session not found")
	}
	if err != nil {
		return nil, errprocess.Storage("find chat session", err)
	}
	return &s, nil
}

func (r *mongoSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoSessionRepository) FindByPair(ctx context.Context, pairKey string) (*domain.ChatSession, error) {
	return r.findOne(ctx, bson.M{"pair_key": pairKey})
}

func (r *mongoSessionRepository) Insert(ctx context.Context, session *domain.ChatSession) error {
	_, err := r.coll.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return errprocess.Wrap(errprocess.CodeConflict, "chat session already exists", err)
	}
	if err != nil {
		return errprocess.Storage("insert chat session", err)
	}
	return nil
}

func (r *mongoSessionRepository) update(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return errprocess.Storage("update chat session", err)
	}
	if res.MatchedCount == 0 {
		return errprocess.NotFound("chat session not found")
	}
	return nil
}

func (r *mongoSessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (r *mongoSessionRepository) IncrementSessionCount(ctx context.Context, id string) error {
	return r.update(ctx, id, bson.M{"$inc": bson.M{"session_count": 1}})
}

func (r *mongoSessionRepository) RecordMessage(ctx context.Context, session *domain.ChatSession, last domain.LastMessage, recipientID string) error {
	// 只接受比目前 last_message 更新的訊息, 多節點同時寫入時較舊的一方失敗重試
	filter := bson.M{
		"_id": session.ID,
		"$or": []bson.M{
			{"last_message": nil},
			{"last_message.timestamp": bson.M{"$lt": last.Timestamp}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"last_message": last,
			"status":       domain.StatusActive,
		},
		"$max": bson.M{"last_activity": last.Timestamp},
		"$inc": bson.M{session.UnreadField(recipientID): 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errprocess.Storage("record chat message", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, session.ID); err != nil {
			return err
		}
		return errprocess.Conflict("chat session has a newer message")
	}
	return nil
}

func (r *mongoSessionRepository) ResetUnread(ctx context.Context, session *domain.ChatSession, userID string) error {
	return r.update(ctx, session.ID, bson.M{"$set": bson.M{session.UnreadField(userID): 0}})
}

func (r *mongoSessionRepository) ListByParticipant(ctx context.Context, userID string, status domain.SessionStatus) ([]domain.ChatSession, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"participant_a": userID},
			{"participant_b": userID},
		},
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errprocess.Storage("list chat sessions", err)
	}
	sessions := []domain.ChatSession{}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, errprocess.Storage("decode chat sessions", err)
	}
	return sessions, nil
}

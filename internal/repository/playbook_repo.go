package repository

import (
	"context"
	"sahayak/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlaybookRepo handles MongoDB operations for generated playbooks
type PlaybookRepo interface {
	Create(ctx context.Context, playbook *model.Playbook) (string, error)
	GetByID(ctx context.Context, id string) (*model.Playbook, error)
	GetBySOSID(ctx context.Context, sosID string) (*model.Playbook, error)
	IncrementViews(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type playbookRepo struct {
	collection *mongo.Collection
}

// NewPlaybookRepo creates a new playbook repository
func NewPlaybookRepo(db *mongo.Database) PlaybookRepo {
	return &playbookRepo{
		collection: db.Collection("playbooks"),
	}
}

func (r *playbookRepo) Create(ctx context.Context, playbook *model.Playbook) (string, error) {
	playbook.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, playbook)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	playbook.ID = oid
	return oid.Hex(), nil
}

func (r *playbookRepo) GetByID(ctx context.Context, id string) (*model.Playbook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var playbook model.Playbook
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&playbook)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playbook, nil
}

func (r *playbookRepo) GetBySOSID(ctx context.Context, sosID string) (*model.Playbook, error) {
	var playbook model.Playbook
	err := r.collection.FindOne(ctx, bson.M{"sosRequestId": sosID}).Decode(&playbook)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playbook, nil
}

func (r *playbookRepo) IncrementViews(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"timesViewed": 1},
	})
	return err
}

func (r *playbookRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

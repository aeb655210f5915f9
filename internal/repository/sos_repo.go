package repository

import (
	"context"
	"sahayak/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SOSRepo handles MongoDB operations for SOS requests
type SOSRepo interface {
	Create(ctx context.Context, req *model.SOSRequest) (string, error)
	GetByID(ctx context.Context, id string) (*model.SOSRequest, error)
	GetByTeacherID(ctx context.Context, teacherID string, status model.SOSStatus, skip, limit int64) ([]*model.SOSRequest, error)
	UpdateContext(ctx context.Context, id string, classified model.ClassifiedContext) error
	SetProcessing(ctx context.Context, id string) error
	SetResolved(ctx context.Context, id, playbookID string, fromCache bool, elapsed time.Duration) error
	SetFailed(ctx context.Context, id string) error
	SaveFeedback(ctx context.Context, id string, feedback model.SOSFeedback) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.SOSStatus) (int64, error)
}

type sosRepo struct {
	collection *mongo.Collection
}

// NewSOSRepo creates a new SOS request repository
func NewSOSRepo(db *mongo.Database) SOSRepo {
	return &sosRepo{
		collection: db.Collection("sos_requests"),
	}
}

func (r *sosRepo) Create(ctx context.Context, req *model.SOSRequest) (string, error) {
	req.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	req.ID = oid
	return oid.Hex(), nil
}

func (r *sosRepo) GetByID(ctx context.Context, id string) (*model.SOSRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var req model.SOSRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *sosRepo) GetByTeacherID(ctx context.Context, teacherID string, status model.SOSStatus, skip, limit int64) ([]*model.SOSRequest, error) {
	filter := bson.M{"teacherId": teacherID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*model.SOSRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *sosRepo) UpdateContext(ctx context.Context, id string, classified model.ClassifiedContext) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"context": classified},
	})
	return err
}

func (r *sosRepo) SetProcessing(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"status":    model.SOSProcessing,
			"startedAt": time.Now(),
		},
	})
	return err
}

func (r *sosRepo) SetResolved(ctx context.Context, id, playbookID string, fromCache bool, elapsed time.Duration) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"status":           model.SOSResolved,
			"playbookId":       playbookID,
			"fromCache":        fromCache,
			"completedAt":      time.Now(),
			"processingTimeMs": elapsed.Milliseconds(),
		},
	})
	return err
}

func (r *sosRepo) SetFailed(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"status":      model.SOSFailed,
			"completedAt": time.Now(),
		},
	})
	return err
}

func (r *sosRepo) SaveFeedback(ctx context.Context, id string, feedback model.SOSFeedback) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	feedback.SubmittedAt = time.Now()
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"feedback": feedback},
	})
	return err
}

func (r *sosRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *sosRepo) CountByStatus(ctx context.Context, status model.SOSStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

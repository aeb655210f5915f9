package repository

import (
	"context"
	"sahayak/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemoryRepo handles MongoDB operations for classroom memories
type MemoryRepo interface {
	GetByTeacherID(ctx context.Context, teacherID string) (*model.ClassroomMemory, error)
	Save(ctx context.Context, memory *model.ClassroomMemory) error
}

type memoryRepo struct {
	collection *mongo.Collection
}

// NewMemoryRepo creates a new classroom memory repository
func NewMemoryRepo(db *mongo.Database) MemoryRepo {
	return &memoryRepo{
		collection: db.Collection("classroom_memories"),
	}
}

func (r *memoryRepo) GetByTeacherID(ctx context.Context, teacherID string) (*model.ClassroomMemory, error) {
	var memory model.ClassroomMemory
	err := r.collection.FindOne(ctx, bson.M{"teacherId": teacherID}).Decode(&memory)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

func (r *memoryRepo) Save(ctx context.Context, memory *model.ClassroomMemory) error {
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
	memory.UpdatedAt = time.Now()

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"teacherId": memory.TeacherID},
		memory,
		options.Replace().SetUpsert(true),
	)
	return err
}

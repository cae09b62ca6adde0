package media

import (
	"context"

	"media-store/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChunkCursor walks the chunks of one file in ascending sequence order.
// Next returns (nil, nil) once the set is exhausted.
type ChunkCursor interface {
	Next(ctx context.Context) (*Chunk, error)
	Close(ctx context.Context) error
}

type ChunkRepository interface {
	Put(ctx context.Context, chunk *Chunk) error
	Open(ctx context.Context, fileID primitive.ObjectID) (ChunkCursor, error)
	DeleteAll(ctx context.Context, fileID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, fileID primitive.ObjectID) (int64, error)
	DistinctFileIDs(ctx context.Context) ([]primitive.ObjectID, error)
	EnsureIndexes(ctx context.Context) error
}

type ChunkRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewChunkRepository(mongodb *database.MongodbDB) ChunkRepository {
	return &ChunkRepositoryImpl{
		Collection: mongodb.DB.Collection("media_chunks"),
	}
}

func (r *ChunkRepositoryImpl) Put(ctx context.Context, chunk *Chunk) error {
	if chunk.ID.IsZero() {
		chunk.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, chunk)
	return err
}

func (r *ChunkRepositoryImpl) Open(ctx context.Context, fileID primitive.ObjectID) (ChunkCursor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "n", Value: 1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"file_id": fileID}, opts)
	if err != nil {
		return nil, err
	}
	return &mongoChunkCursor{cursor: cursor}, nil
}

func (r *ChunkRepositoryImpl) DeleteAll(ctx context.Context, fileID primitive.ObjectID) (int64, error) {
	res, err := r.Collection.DeleteMany(ctx, bson.M{"file_id": fileID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, fileID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"file_id": fileID})
}

// DistinctFileIDs lists every file_id that still owns at least one chunk.
func (r *ChunkRepositoryImpl) DistinctFileIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := r.Collection.Distinct(ctx, "file_id", bson.M{})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *ChunkRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_id", Value: 1}, {Key: "n", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type mongoChunkCursor struct {
	cursor *mongo.Cursor
}

func (c *mongoChunkCursor) Next(ctx context.Context) (*Chunk, error) {
	if !c.cursor.Next(ctx) {
		if err := c.cursor.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var chunk Chunk
	if err := c.cursor.Decode(&chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *mongoChunkCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}

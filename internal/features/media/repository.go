package media

import (
	"context"
	"errors"
	"regexp"

	"media-store/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFilter holds the independently combinable listing predicates.
// All supplied predicates are AND'ed; Tags matches a record containing
// ANY of the supplied tags.
type ListFilter struct {
	OwnerID           string
	Status            FileStatus
	ContentTypePrefix string
	Tags              []string
}

// Query translates the filter into a single Mongo query document.
func (f ListFilter) Query() bson.M {
	query := bson.M{}

	if f.OwnerID != "" {
		query["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.ContentTypePrefix != "" {
		query["content_type"] = bson.M{
			"$regex":   "^" + regexp.QuoteMeta(f.ContentTypePrefix),
			"$options": "i",
		}
	}
	if len(f.Tags) > 0 {
		query["tags"] = bson.M{"$in": f.Tags}
	}

	return query
}

type MediaRepository interface {
	Insert(ctx context.Context, file *MediaFile) error
	Get(ctx context.Context, id primitive.ObjectID) (*MediaFile, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*MediaFile, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter ListFilter, skip, limit int64) ([]*MediaFile, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type MediaRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMediaRepository(mongodb *database.MongodbDB) MediaRepository {
	return &MediaRepositoryImpl{
		Collection: mongodb.DB.Collection("media_files"),
	}
}

func (r *MediaRepositoryImpl) Insert(ctx context.Context, file *MediaFile) error {
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, file)
	return err
}

func (r *MediaRepositoryImpl) Get(ctx context.Context, id primitive.ObjectID) (*MediaFile, error) {
	var file MediaFile
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// UpdateFields applies a $set document and returns the updated record.
// Dotted custom_metadata paths give key-wise merge semantics natively.
func (r *MediaRepositoryImpl) UpdateFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*MediaFile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var file MediaFile
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *MediaRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MediaRepositoryImpl) List(ctx context.Context, filter ListFilter, skip, limit int64) ([]*MediaFile, error) {
	// Most recent first; _id ascending keeps ordering deterministic on ties
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, filter.Query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []*MediaFile{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *MediaRepositoryImpl) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.Collection.CountDocuments(ctx, filter.Query())
}

// EnsureIndexes creates the listing indexes: single-field owner/status/
// content_type/created_at plus the owner+status and content_type+status
// compounds used by the common filter combinations.
func (r *MediaRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "content_type", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "content_type", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.Collection.Indexes().CreateMany(ctx, models)
	return err
}

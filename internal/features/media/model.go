package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileStatus drives visibility: only active files appear in default
// listings, and soft-deleted files are hidden from retrieval entirely.
type FileStatus string

const (
	StatusActive      FileStatus = "active"
	StatusDeleted     FileStatus = "deleted"
	StatusHidden      FileStatus = "hidden"
	StatusProcessing  FileStatus = "processing"
	StatusQuarantined FileStatus = "quarantined"
)

func (s FileStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDeleted, StatusHidden, StatusProcessing, StatusQuarantined:
		return true
	}
	return false
}

// MetaKind tags the scalar variant held by a MetaValue.
type MetaKind string

const (
	MetaKindString MetaKind = "string"
	MetaKindNumber MetaKind = "number"
	MetaKindBool   MetaKind = "bool"
)

// MetaValue is a tagged scalar (string, number or boolean) used as the
// value type of custom metadata. It serializes to the bare scalar in
// JSON and to the tagged form in BSON, so Mongo documents stay typed
// while API payloads read naturally.
type MetaValue struct {
	Kind MetaKind `bson:"kind" json:"-"`
	Str  string   `bson:"str" json:"-"`
	Num  float64  `bson:"num" json:"-"`
	Bool bool     `bson:"bool" json:"-"`
}

func MetaString(s string) MetaValue  { return MetaValue{Kind: MetaKindString, Str: s} }
func MetaNumber(f float64) MetaValue { return MetaValue{Kind: MetaKindNumber, Num: f} }
func MetaBool(b bool) MetaValue      { return MetaValue{Kind: MetaKindBool, Bool: b} }

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetaKindString:
		return json.Marshal(v.Str)
	case MetaKindNumber:
		return json.Marshal(v.Num)
	case MetaKindBool:
		return json.Marshal(v.Bool)
	}
	return nil, fmt.Errorf("unknown metadata value kind %q", v.Kind)
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case string:
		*v = MetaString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return err
		}
		*v = MetaNumber(f)
	case bool:
		*v = MetaBool(t)
	default:
		return fmt.Errorf("custom metadata values must be string, number or boolean, got %T", raw)
	}
	return nil
}

// MediaFile is the metadata record stored in the `media_files` collection.
// Filename, content type, size, owner and the chunk references are fixed
// at upload time; tags, description, custom metadata and status are the
// only mutable fields.
type MediaFile struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Filename       string               `json:"filename" bson:"filename"`
	ContentType    string               `json:"content_type" bson:"content_type"`
	SizeBytes      int64                `json:"size_bytes" bson:"size_bytes"`
	OwnerID        string               `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	Tags           []string             `json:"tags" bson:"tags"`
	Description    string               `json:"description,omitempty" bson:"description,omitempty"`
	CustomMetadata map[string]MetaValue `json:"custom_metadata,omitempty" bson:"custom_metadata,omitempty"`
	Status         FileStatus           `json:"status" bson:"status"`
	ChunkCount     int32                `json:"chunk_count" bson:"chunk_count"`
	ChunkIDs       []primitive.ObjectID `json:"-" bson:"chunk_ids"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// Chunk is one fixed-size segment of a stored file, keyed by owning file
// and ascending sequence number. The (file_id, n) pair is unique.
type Chunk struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	FileID primitive.ObjectID `bson:"file_id"`
	Seq    int32              `bson:"n"`
	Data   []byte             `bson:"data"`
}

// ListResult is a page of records plus the total match count before
// pagination, so callers can compute page counts.
type ListResult struct {
	Files []*MediaFile `json:"files"`
	Total int64        `json:"total"`
	Skip  int64        `json:"skip"`
	Limit int64        `json:"limit"`
}

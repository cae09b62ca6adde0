package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"media-store/internal/cache"
	"media-store/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const infoCacheTTL = 60 * time.Second

// EventPublisher receives storage lifecycle events (uploaded, updated,
// deleted) for fan-out to subscribers.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// UploadParams carries the caller-supplied metadata for a new upload.
type UploadParams struct {
	Filename       string
	ContentType    string
	OwnerID        string
	Tags           []string
	Description    string
	CustomMetadata map[string]MetaValue
}

// UpdatePatch is a partial metadata mutation. Nil fields are left
// untouched; Tags replaces the whole set, CustomMetadata merges key-wise.
type UpdatePatch struct {
	Tags           *[]string
	Description    *string
	CustomMetadata map[string]MetaValue
	Status         *FileStatus
}

func (p UpdatePatch) isEmpty() bool {
	return p.Tags == nil && p.Description == nil && len(p.CustomMetadata) == 0 && p.Status == nil
}

type MediaService interface {
	Upload(ctx context.Context, stream io.Reader, params UploadParams) (*MediaFile, error)
	Open(ctx context.Context, id primitive.ObjectID) (*MediaFile, *ChunkStream, error)
	Info(ctx context.Context, id primitive.ObjectID) (*MediaFile, error)
	List(ctx context.Context, filter ListFilter, skip, limit int64) (*ListResult, error)
	Export(ctx context.Context, filter ListFilter) ([]byte, string, error)
	Update(ctx context.Context, id primitive.ObjectID, patch UpdatePatch) (*MediaFile, error)
	Delete(ctx context.Context, id primitive.ObjectID, hard bool) error
}

type MediaServiceImpl struct {
	MediaRepo MediaRepository
	ChunkRepo ChunkRepository
	Cache     *cache.Cache
	Events    EventPublisher
	Logger    *zap.Logger
	Config    *config.Config
}

func NewMediaService(mediaRepo MediaRepository, chunkRepo ChunkRepository, c *cache.Cache, events EventPublisher, logger *zap.Logger, cfg *config.Config) MediaService {
	return &MediaServiceImpl{
		MediaRepo: mediaRepo,
		ChunkRepo: chunkRepo,
		Cache:     c,
		Events:    events,
		Logger:    logger,
		Config:    cfg,
	}
}

// Upload consumes the stream into fixed-size chunks and commits the
// metadata record only after every chunk is durably written, so readers
// never observe a partially uploaded file. Any failure along the way
// (stream read, chunk write, metadata insert, client disconnect) removes
// the chunks already written before the error is surfaced.
func (s *MediaServiceImpl) Upload(ctx context.Context, stream io.Reader, params UploadParams) (*MediaFile, error) {
	if !s.contentTypeAllowed(params.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, params.ContentType)
	}

	fileID := primitive.NewObjectID()
	buf := make([]byte, s.Config.ChunkSizeBytes)

	var (
		size     int64
		seq      int32
		chunkIDs []primitive.ObjectID
	)

	for {
		n, readErr := io.ReadFull(stream, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])

			chunk := &Chunk{FileID: fileID, Seq: seq, Data: data}
			if err := s.ChunkRepo.Put(ctx, chunk); err != nil {
				s.cleanupChunks(fileID)
				return nil, fmt.Errorf("%w: chunk %d: %v", ErrStorageWrite, seq, err)
			}

			chunkIDs = append(chunkIDs, chunk.ID)
			size += int64(n)
			seq++
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			s.cleanupChunks(fileID)
			return nil, fmt.Errorf("media: reading upload stream: %w", readErr)
		}
	}

	if size == 0 {
		return nil, ErrEmptyUpload
	}

	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	file := &MediaFile{
		ID:             fileID,
		Filename:       params.Filename,
		ContentType:    params.ContentType,
		SizeBytes:      size,
		OwnerID:        params.OwnerID,
		Tags:           tags,
		Description:    params.Description,
		CustomMetadata: stampUploadMetadata(params.CustomMetadata),
		Status:         StatusActive,
		ChunkCount:     int32(len(chunkIDs)),
		ChunkIDs:       chunkIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.MediaRepo.Insert(ctx, file); err != nil {
		s.cleanupChunks(fileID)
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	s.publish("media.uploaded", file)
	s.Logger.Info("file uploaded",
		zap.String("file_id", fileID.Hex()),
		zap.Int64("size_bytes", size),
		zap.Int32("chunks", file.ChunkCount))

	return file, nil
}

// Open resolves the record and returns a lazy ordered stream over its
// chunks. Soft-deleted files are invisible here, matching listing
// defaults; other non-active statuses still resolve by direct id.
func (s *MediaServiceImpl) Open(ctx context.Context, id primitive.ObjectID) (*MediaFile, *ChunkStream, error) {
	file, err := s.MediaRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if file.Status == StatusDeleted {
		return nil, nil, ErrNotFound
	}

	cursor, err := s.ChunkRepo.Open(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("media: opening chunk cursor: %w", err)
	}

	return file, newChunkStream(ctx, cursor, file.ChunkCount), nil
}

// Info returns current metadata without touching chunk data, served from
// the read cache when possible.
func (s *MediaServiceImpl) Info(ctx context.Context, id primitive.ObjectID) (*MediaFile, error) {
	key := infoCacheKey(id)

	var cached MediaFile
	if err := s.Cache.Get(ctx, key, &cached); err == nil {
		if cached.Status == StatusDeleted {
			return nil, ErrNotFound
		}
		return &cached, nil
	}

	file, err := s.MediaRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.Status == StatusDeleted {
		return nil, ErrNotFound
	}

	if err := s.Cache.Set(ctx, key, file, infoCacheTTL); err != nil {
		s.Logger.Warn("info cache set failed", zap.String("file_id", id.Hex()), zap.Error(err))
	}

	return file, nil
}

// List applies the filter, clamps pagination and returns one page plus
// the pre-pagination total. Status defaults to active when omitted.
func (s *MediaServiceImpl) List(ctx context.Context, filter ListFilter, skip, limit int64) (*ListResult, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPagination
	}
	if limit == 0 {
		limit = s.Config.DefaultListLimit
	}
	if limit > s.Config.MaxListLimit {
		limit = s.Config.MaxListLimit
	}
	if filter.Status == "" {
		filter.Status = StatusActive
	}

	total, err := s.MediaRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	files, err := s.MediaRepo.List(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}

	return &ListResult{Files: files, Total: total, Skip: skip, Limit: limit}, nil
}

// Update applies a partial patch. Tags replace the set wholesale, custom
// metadata merges key-wise via dotted paths, and updated_at is always
// refreshed. Immutable fields never reach this method; the API boundary
// rejects them before decoding the patch.
func (s *MediaServiceImpl) Update(ctx context.Context, id primitive.ObjectID, patch UpdatePatch) (*MediaFile, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	for k, v := range patch.CustomMetadata {
		set["custom_metadata."+k] = v
	}

	file, err := s.MediaRepo.UpdateFields(ctx, id, set)
	if err != nil {
		return nil, err
	}

	s.invalidateInfo(ctx, id)
	if !patch.isEmpty() {
		s.publish("media.updated", file)
	}

	return file, nil
}

// Delete implements soft delete (status flip, chunks retained, idempotent)
// and hard delete (chunks removed before the metadata record, so a crash
// can only ever leave detectable orphaned metadata, never orphaned chunks).
func (s *MediaServiceImpl) Delete(ctx context.Context, id primitive.ObjectID, hard bool) error {
	file, err := s.MediaRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if hard {
		if _, err := s.ChunkRepo.DeleteAll(ctx, id); err != nil {
			return fmt.Errorf("media: removing chunks: %w", err)
		}
		if err := s.MediaRepo.Delete(ctx, id); err != nil {
			return err
		}
	} else {
		if file.Status == StatusDeleted {
			// Already soft-deleted: no-op success
			return nil
		}
		if _, err := s.MediaRepo.UpdateFields(ctx, id, bson.M{
			"status":     StatusDeleted,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return err
		}
	}

	s.invalidateInfo(ctx, id)
	s.publish("media.deleted", deletePayload(id, hard))
	s.Logger.Info("file deleted", zap.String("file_id", id.Hex()), zap.Bool("hard", hard))

	return nil
}

func (s *MediaServiceImpl) contentTypeAllowed(contentType string) bool {
	for _, prefix := range s.Config.AllowedContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// cleanupChunks removes every chunk written for an aborted upload. It
// runs on a fresh context so a cancelled request cannot skip compensation.
func (s *MediaServiceImpl) cleanupChunks(fileID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.ChunkRepo.DeleteAll(ctx, fileID)
	if err != nil {
		s.Logger.Error("orphan chunk cleanup failed",
			zap.String("file_id", fileID.Hex()), zap.Error(err))
		return
	}
	if deleted > 0 {
		s.Logger.Warn("removed chunks from aborted upload",
			zap.String("file_id", fileID.Hex()), zap.Int64("chunks", deleted))
	}
}

func (s *MediaServiceImpl) invalidateInfo(ctx context.Context, id primitive.ObjectID) {
	if err := s.Cache.Delete(ctx, infoCacheKey(id)); err != nil {
		s.Logger.Warn("info cache invalidation failed", zap.String("file_id", id.Hex()), zap.Error(err))
	}
}

func (s *MediaServiceImpl) publish(event string, payload interface{}) {
	if s.Events != nil {
		s.Events.Publish(event, payload)
	}
}

func infoCacheKey(id primitive.ObjectID) string {
	return "media:info:" + id.Hex()
}

// stampUploadMetadata layers caller-provided custom metadata over the
// baseline keys every upload gets.
func stampUploadMetadata(custom map[string]MetaValue) map[string]MetaValue {
	merged := map[string]MetaValue{
		"uploaded_by": MetaString("api"),
		"source":      MetaString("upload_endpoint"),
	}
	for k, v := range custom {
		merged[k] = v
	}
	return merged
}

func deletePayload(id primitive.ObjectID, hard bool) map[string]interface{} {
	return map[string]interface{}{"file_id": id.Hex(), "hard": hard}
}

package media

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"media-store/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// stubMediaService records which operations the handlers reach.
type stubMediaService struct {
	updateCalled bool
}

func (s *stubMediaService) Upload(ctx context.Context, stream io.Reader, params UploadParams) (*MediaFile, error) {
	return nil, ErrEmptyUpload
}

func (s *stubMediaService) Open(ctx context.Context, id primitive.ObjectID) (*MediaFile, *ChunkStream, error) {
	return nil, nil, ErrNotFound
}

func (s *stubMediaService) Info(ctx context.Context, id primitive.ObjectID) (*MediaFile, error) {
	return nil, ErrNotFound
}

func (s *stubMediaService) List(ctx context.Context, filter ListFilter, skip, limit int64) (*ListResult, error) {
	return &ListResult{Files: []*MediaFile{}}, nil
}

func (s *stubMediaService) Export(ctx context.Context, filter ListFilter) ([]byte, string, error) {
	return nil, "", ErrInvalidPagination
}

func (s *stubMediaService) Update(ctx context.Context, id primitive.ObjectID, patch UpdatePatch) (*MediaFile, error) {
	s.updateCalled = true
	return &MediaFile{ID: id}, nil
}

func (s *stubMediaService) Delete(ctx context.Context, id primitive.ObjectID, hard bool) error {
	return nil
}

func TestUpdateFileRejectsImmutableFields(t *testing.T) {
	stub := &stubMediaService{}
	controller := NewMediaController(stub, &config.Config{}, zap.NewNop())

	app := fiber.New()
	app.Put("/files/:id", controller.UpdateFile)

	body := `{"tags": ["a"], "filename": "renamed.png"}`
	req := httptest.NewRequest("PUT", "/files/"+primitive.NewObjectID().Hex(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "immutable")

	assert.False(t, stub.updateCalled, "update must not reach the service when the patch names an immutable field")
}

func TestFindImmutableField(t *testing.T) {
	raw := map[string]json.RawMessage{
		"tags":     json.RawMessage(`["a"]`),
		"filename": json.RawMessage(`"x.png"`),
	}
	field, bad := findImmutableField(raw)
	assert.True(t, bad)
	assert.Equal(t, "filename", field)

	raw = map[string]json.RawMessage{
		"tags":        json.RawMessage(`["a"]`),
		"description": json.RawMessage(`"d"`),
		"status":      json.RawMessage(`"hidden"`),
	}
	_, bad = findImmutableField(raw)
	assert.False(t, bad)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"beach", "vacation"}, parseTags("beach, vacation"))
	assert.Equal(t, []string{"solo"}, parseTags("solo"))
	assert.Nil(t, parseTags(""))
	assert.Nil(t, parseTags(" , ,"))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="photo.jpg"`, contentDisposition("photo.jpg"))

	// Non-ASCII filenames fall back to RFC 5987 encoding
	assert.Equal(t, "attachment; filename*=UTF-8''caf%C3%A9.png", contentDisposition("café.png"))
}

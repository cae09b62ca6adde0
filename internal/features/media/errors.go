package media

import "errors"

// Typed failures surfaced by the storage core. The HTTP layer maps these
// to status codes; raw driver errors never cross the feature boundary.
var (
	ErrInvalidContentType = errors.New("media: content type not allowed")
	ErrEmptyUpload        = errors.New("media: empty upload")
	ErrStorageWrite       = errors.New("media: chunk write failed")
	ErrMetadataWrite      = errors.New("media: metadata write failed")
	ErrNotFound           = errors.New("media: file not found")
	ErrImmutableField     = errors.New("media: immutable field in update")
	ErrInvalidPagination  = errors.New("media: invalid pagination bounds")
)

package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChunkStreamDetectsMissingTail(t *testing.T) {
	fileID := primitive.NewObjectID()
	cursor := &sliceChunkCursor{chunks: []*Chunk{
		{FileID: fileID, Seq: 0, Data: []byte("abcd")},
		{FileID: fileID, Seq: 1, Data: []byte("efgh")},
	}}

	// Metadata claims 3 chunks but the backend only holds 2
	stream := newChunkStream(context.Background(), cursor, 3)
	_, err := io.ReadAll(stream)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for truncated chunk set, got %v", err)
	}
}

func TestChunkStreamDetectsSequenceGap(t *testing.T) {
	fileID := primitive.NewObjectID()
	cursor := &sliceChunkCursor{chunks: []*Chunk{
		{FileID: fileID, Seq: 0, Data: []byte("abcd")},
		{FileID: fileID, Seq: 2, Data: []byte("ijkl")},
	}}

	stream := newChunkStream(context.Background(), cursor, 3)
	_, err := io.ReadAll(stream)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for gapped chunk sequence, got %v", err)
	}
}

func TestChunkStreamEmptyExpectedNothing(t *testing.T) {
	stream := newChunkStream(context.Background(), &sliceChunkCursor{}, 0)
	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("Expected clean EOF, got %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected no data, got %d bytes", len(data))
	}
}

func TestChunkStreamSmallReads(t *testing.T) {
	fileID := primitive.NewObjectID()
	cursor := &sliceChunkCursor{chunks: []*Chunk{
		{FileID: fileID, Seq: 0, Data: []byte("abcd")},
		{FileID: fileID, Seq: 1, Data: []byte("ef")},
	}}

	stream := newChunkStream(context.Background(), cursor, 2)

	var out []byte
	buf := make([]byte, 3) // smaller than the chunk size
	for {
		n, err := stream.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	if string(out) != "abcdef" {
		t.Errorf("Expected abcdef, got %q", out)
	}
}

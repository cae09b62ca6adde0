package media

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap"
)

func newTestSweeper(mediaRepo *MockMediaRepo, chunkRepo *MockChunkRepo) *OrphanSweeper {
	service := newTestService(mediaRepo, chunkRepo)
	return &OrphanSweeper{
		MediaRepo: mediaRepo,
		ChunkRepo: chunkRepo,
		Logger:    zap.NewNop(),
		Config:    service.Config,
	}
}

func TestSweepRemovesOrphanedChunkSets(t *testing.T) {
	mediaRepo := NewMockMediaRepo()
	chunkRepo := NewMockChunkRepo()
	service := newTestService(mediaRepo, chunkRepo)
	ctx := context.Background()

	kept := uploadBytes(t, service, []byte("abcdefgh"), UploadParams{})
	orphan := uploadBytes(t, service, []byte("ijklmnop"), UploadParams{})

	// Drop the metadata record directly, leaving the chunk set behind, the
	// way a crash between chunk writes and the record commit would
	if err := mediaRepo.Delete(ctx, orphan.ID); err != nil {
		t.Fatalf("Deleting metadata record failed: %v", err)
	}

	sweeper := newTestSweeper(mediaRepo, chunkRepo)
	removed, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 orphaned set removed, got %d", removed)
	}

	if n, _ := chunkRepo.Count(ctx, orphan.ID); n != 0 {
		t.Errorf("Expected orphaned chunks removed, %d remain", n)
	}
	if n, _ := chunkRepo.Count(ctx, kept.ID); n == 0 {
		t.Errorf("Chunks of a live file must survive the sweep")
	}

	// The surviving file still reads back intact
	_, stream, err := service.Open(ctx, kept.ID)
	if err != nil {
		t.Fatalf("Open after sweep failed: %v", err)
	}
	defer stream.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(stream); err != nil {
		t.Fatalf("Reading after sweep failed: %v", err)
	}
	if buf.String() != "abcdefgh" {
		t.Errorf("Readback mismatch after sweep: %q", buf.String())
	}
}

func TestSweepNoOrphans(t *testing.T) {
	mediaRepo := NewMockMediaRepo()
	chunkRepo := NewMockChunkRepo()
	service := newTestService(mediaRepo, chunkRepo)
	ctx := context.Background()

	uploadBytes(t, service, []byte("abcd"), UploadParams{})

	sweeper := newTestSweeper(mediaRepo, chunkRepo)
	removed, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected no removals on a clean store, got %d", removed)
	}
}

func TestSweepKeepsSoftDeletedFiles(t *testing.T) {
	mediaRepo := NewMockMediaRepo()
	chunkRepo := NewMockChunkRepo()
	service := newTestService(mediaRepo, chunkRepo)
	ctx := context.Background()

	file := uploadBytes(t, service, []byte("abcd"), UploadParams{})
	if err := service.Delete(ctx, file.ID, false); err != nil {
		t.Fatalf("Soft delete failed: %v", err)
	}

	sweeper := newTestSweeper(mediaRepo, chunkRepo)
	removed, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Soft-deleted files still have a record; expected 0 removals, got %d", removed)
	}
	if n, _ := chunkRepo.Count(ctx, file.ID); n == 0 {
		t.Errorf("Soft-deleted file chunks must survive the sweep")
	}
}

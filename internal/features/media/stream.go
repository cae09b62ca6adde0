package media

import (
	"context"
	"fmt"
	"io"
)

// ChunkStream is a lazy, finite, non-restartable reader over the chunks
// of one file, produced in strictly ascending sequence order. It holds no
// lock between reads, so a concurrent hard delete can make the remainder
// of the stream disappear mid-read; that surfaces as a read error rather
// than silently truncated output.
type ChunkStream struct {
	ctx      context.Context
	cursor   ChunkCursor
	expected int32

	buf     []byte
	nextSeq int32
	done    bool
	err     error
}

func newChunkStream(ctx context.Context, cursor ChunkCursor, expected int32) *ChunkStream {
	return &ChunkStream{ctx: ctx, cursor: cursor, expected: expected}
}

// Read implements io.Reader, refilling from the next chunk on demand.
func (s *ChunkStream) Read(p []byte) (int, error) {
	for len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		if s.done {
			return 0, io.EOF
		}

		chunk, err := s.cursor.Next(s.ctx)
		if err != nil {
			s.err = fmt.Errorf("media: reading chunk %d: %w", s.nextSeq, err)
			return 0, s.err
		}
		if chunk == nil {
			s.done = true
			if s.nextSeq < s.expected {
				// Chunk set ends early: orphaned metadata or a
				// concurrent hard delete won the race.
				s.err = fmt.Errorf("%w: chunk %d of %d missing", ErrNotFound, s.nextSeq, s.expected)
				return 0, s.err
			}
			return 0, io.EOF
		}
		if chunk.Seq != s.nextSeq {
			s.err = fmt.Errorf("%w: expected chunk %d, found %d", ErrNotFound, s.nextSeq, chunk.Seq)
			return 0, s.err
		}

		s.buf = chunk.Data
		s.nextSeq++
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Close releases the underlying cursor. Safe to call after exhaustion.
func (s *ChunkStream) Close() error {
	return s.cursor.Close(context.Background())
}

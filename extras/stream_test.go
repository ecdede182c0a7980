package extras

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestStreamReader_ChunksAndDropsShortTail(t *testing.T) {
	const sampleRate = 16000
	chunkSize := int(float64(sampleRate)*0.3) * 2 // 300ms of PCM16

	// Two full chunks plus a short tail that must be dropped.
	audio := make([]byte, chunkSize*2+100)
	for i := range audio {
		audio[i] = byte(i)
	}

	ch := StreamReader(context.Background(), bytes.NewReader(audio), sampleRate)

	var chunks [][]byte
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) != chunkSize {
			t.Errorf("Chunk %d: expected %d bytes, got %d", i, chunkSize, len(chunk))
		}
	}
	if !bytes.Equal(chunks[0], audio[:chunkSize]) {
		t.Error("Chunk 0 does not match source audio")
	}
	if !bytes.Equal(chunks[1], audio[chunkSize:2*chunkSize]) {
		t.Error("Chunk 1 does not match source audio")
	}
}

func TestStreamReader_ContextCancelled(t *testing.T) {
	const sampleRate = 16000
	chunkSize := int(float64(sampleRate)*0.3) * 2
	audio := make([]byte, chunkSize*10)

	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamReader(ctx, bytes.NewReader(audio), sampleRate)

	<-ch
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// One chunk may already be in flight; the channel must still
			// close promptly.
			select {
			case _, ok := <-ch:
				if ok {
					t.Error("Expected channel to close after cancellation")
				}
			case <-time.After(time.Second):
				t.Error("Channel did not close after cancellation")
			}
		}
	case <-time.After(time.Second):
		t.Error("Channel did not close after cancellation")
	}
}

func TestStreamFile_MissingFile(t *testing.T) {
	if _, err := StreamFile(context.Background(), "does-not-exist.pcm", 16000); err == nil {
		t.Error("Expected error for missing file")
	}
}

// Package extras provides audio helpers for feeding local PCM16 audio into
// the streaming clients at real-time pace.
package extras

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	chunkDuration = 300 * time.Millisecond
	sendInterval  = 150 * time.Millisecond
	bytesPerFrame = 2 // PCM16 mono
)

// StreamFile reads a PCM16 mono file and sends it to the channel in chunks
// of roughly 300ms of audio, paced so the stream approximates real time.
// Trailing data shorter than a full chunk is dropped. The channel is closed
// before returning.
//
// Only raw PCM16 data is supported; WAV headers are passed through as-is
// and will be transcribed as a short burst of noise.
func StreamFile(ctx context.Context, filepath string, sampleRate int) (<-chan []byte, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("extras: failed to open audio file: %w", err)
	}

	ch := make(chan []byte)
	go func() {
		defer f.Close()
		defer close(ch)
		streamChunks(ctx, f, sampleRate, ch)
	}()
	return ch, nil
}

// StreamReader is StreamFile for an arbitrary reader of PCM16 mono audio.
// The reader is not closed.
func StreamReader(ctx context.Context, r io.Reader, sampleRate int) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		streamChunks(ctx, r, sampleRate, ch)
	}()
	return ch
}

func streamChunks(ctx context.Context, r io.Reader, sampleRate int, ch chan<- []byte) {
	chunkSize := int(float64(sampleRate)*chunkDuration.Seconds()) * bytesPerFrame

	ticker := time.NewTicker(sendInterval)
	defer ticker.Stop()

	for {
		chunk := make([]byte, chunkSize)
		if n, _ := io.ReadFull(r, chunk); n < chunkSize {
			// A partial tail is too short to transcode reliably.
			return
		}

		select {
		case ch <- chunk:
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

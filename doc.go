// Package assemblyai provides a client for the AssemblyAI API.
//
// The root package covers the asynchronous REST surface: submitting audio
// for transcription, polling for results, exporting subtitles and derived
// views, and calling LeMUR for LLM analysis of completed transcripts.
//
//	client := assemblyai.NewClient(apiKey)
//	transcript, err := client.Transcribe(ctx, assemblyai.TranscriptParams{
//		AudioURL: "https://example.com/meeting.mp3",
//	})
//
// Real-time transcription lives in two subpackages. New integrations should
// use package streaming, the v3 universal streaming client. Package realtime
// is the legacy v2 client and is kept for existing integrations.
//
// Package extras contains helpers for pacing local PCM16 audio into either
// streaming client.
package assemblyai

// Package transcribe converts voice-note media into text for the intake
// pipeline. The dialogue layer treats it as an opaque collaborator: a failed
// transcription folds into the empty-input path.
package transcribe

import "context"

// Transcriber turns an inbound media attachment into a transcript.
type Transcriber interface {
	// TranscribeMedia fetches the media at mediaURL and returns its
	// transcript. contentType is the media MIME type reported by the
	// messaging provider.
	TranscribeMedia(ctx context.Context, mediaURL, contentType string) (string, error)
}

package voice

import (
	"context"
	"fmt"
)

// FileRecorder "records" by decoding an existing audio file, for machines
// without a microphone or for replaying a saved request.
type FileRecorder struct {
	Path   string
	Decode func(ctx context.Context, path string) ([]float32, error)
}

func (f FileRecorder) Record(ctx context.Context) ([]float32, error) {
	pcm, err := f.Decode(ctx, f.Path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return pcm, nil
}

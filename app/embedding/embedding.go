package embedding

import "context"

// Encoder maps text to a fixed-length vector
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dims() int
}

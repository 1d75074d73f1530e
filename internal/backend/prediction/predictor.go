package prediction

import "context"

// Predictor turns raw image bytes into a Result. Implementations never
// return errors; failures are reported through Result.Outcome.
type Predictor interface {
	Name() string
	Predict(ctx context.Context, imageData []byte) Result
	Close() error
}

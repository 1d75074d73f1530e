package prediction

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/nfnt/resize"
)

const (
	// ModelInputSize is the square spatial resolution the model expects.
	ModelInputSize = 224
	// minConfidence is the percentage below which a prediction is reported
	// as low confidence.
	minConfidence = 60.0
)

// Layout is the tensor memory order of the model input.
type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutNHWC, LayoutNCHW:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("invalid layout: %s (must be 'nhwc' or 'nchw')", s)
	}
}

// Model runs one forward pass and returns one probability per class label.
type Model interface {
	Infer(input []float32) ([]float32, error)
	Close() error
}

// Classifier gates an image on greenness and then runs the model. A
// Classifier built without a model is permanently disabled.
type Classifier struct {
	model  Model
	gate   *Gate
	layout Layout
	labels []string
}

func NewClassifier(model Model, layout Layout) *Classifier {
	return &Classifier{
		model:  model,
		gate:   NewGate(),
		layout: layout,
		labels: ClassLabels,
	}
}

func (c *Classifier) Name() string {
	return "classifier"
}

func (c *Classifier) Enabled() bool {
	return c.model != nil
}

func (c *Classifier) Predict(_ context.Context, imageData []byte) (result Result) {
	if c.model == nil {
		return modelUnavailableResult()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Classifier: prediction panicked", "panic", r)
			result = inferenceErrorResult(fmt.Errorf("prediction panicked: %v", r))
		}
	}()

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Warn("Classifier: failed to decode image", "input_size_bytes", len(imageData), "error", err)
		return decodeErrorResult(err)
	}

	ratio, leaf := c.gate.Evaluate(img)
	slog.Debug("Classifier: gate evaluated", "green_ratio", ratio, "is_leaf", leaf)
	if !leaf {
		return notALeafResult()
	}

	probabilities, err := c.model.Infer(preprocess(img, c.layout))
	if err != nil {
		slog.Error("Classifier: inference failed", "error", err)
		return inferenceErrorResult(fmt.Errorf("inference failed: %w", err))
	}
	if len(probabilities) != len(c.labels) {
		err := fmt.Errorf("model returned %d scores, expected %d", len(probabilities), len(c.labels))
		slog.Error("Classifier: unexpected model output", "error", err)
		return inferenceErrorResult(err)
	}

	best := 0
	for i, p := range probabilities {
		if p > probabilities[best] {
			best = i
		}
	}

	// The threshold applies to the exact value; rounding is for reporting only.
	exact := float64(probabilities[best]) * 100
	confidence := toPercent(probabilities[best])
	slog.Debug("Classifier: prediction complete", "label", c.labels[best], "confidence", confidence)
	if exact < minConfidence {
		return lowConfidenceResult(confidence)
	}
	return successResult(c.labels[best], confidence)
}

func (c *Classifier) Close() error {
	if c.model != nil {
		return c.model.Close()
	}
	return nil
}

// preprocess resizes to ModelInputSize square RGB and scales to [0,1].
func preprocess(img image.Image, layout Layout) []float32 {
	resized := resize.Resize(ModelInputSize, ModelInputSize, img, resize.Bilinear)
	bounds := resized.Bounds()

	const plane = ModelInputSize * ModelInputSize
	data := make([]float32, 3*plane)

	for y := 0; y < ModelInputSize; y++ {
		for x := 0; x < ModelInputSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb := [3]float32{
				float32(r>>8) / 255.0,
				float32(g>>8) / 255.0,
				float32(b>>8) / 255.0,
			}

			pixel := y*ModelInputSize + x
			for ch, value := range rgb {
				if layout == LayoutNCHW {
					data[ch*plane+pixel] = value
				} else {
					data[pixel*3+ch] = value
				}
			}
		}
	}

	return data
}

package prediction

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

type mockEntry struct {
	label      string
	confidence float64
}

var mockTable = []mockEntry{
	{"Tomato Early Blight", 92.3},
	{"Potato Late Blight", 87.6},
	{"Apple Scab", 95.2},
	{"Corn Rust", 91.8},
	{"Healthy Leaf", 99.0},
	{"Mango Anthracnose", 88.7},
	{"Pepper Bell Bacterial Spot", 90.4},
}

// MockPredictor ignores the image and picks a uniformly random entry from a
// fixed table. It stands in for the classifier when no model is available.
type MockPredictor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockPredictor(seed uint64) *MockPredictor {
	return &MockPredictor{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewMockPredictorFromParams reads an optional "seed"; zero seeds from the clock.
func NewMockPredictorFromParams(params map[string]any) (Predictor, error) {
	seed := GetIntParam(params, "seed", 0)
	if seed < 0 {
		return nil, fmt.Errorf("seed must not be negative, got %d", seed)
	}
	if seed == 0 {
		return NewMockPredictor(uint64(time.Now().UnixNano())), nil
	}
	return NewMockPredictor(uint64(seed)), nil
}

func (p *MockPredictor) Name() string {
	return "mock"
}

func (p *MockPredictor) Predict(_ context.Context, _ []byte) Result {
	p.mu.Lock()
	entry := mockTable[p.rng.IntN(len(mockTable))]
	p.mu.Unlock()
	return successResult(entry.label, entry.confidence)
}

func (p *MockPredictor) Close() error {
	return nil
}

func init() {
	if err := DefaultRegistry.Register("mock", NewMockPredictorFromParams); err != nil {
		panic(fmt.Sprintf("failed to register mock predictor: %v", err))
	}
}

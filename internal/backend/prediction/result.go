package prediction

import (
	"fmt"
	"math"
)

// Sentinel labels returned in place of a class name.
const (
	LabelModelNotLoaded = "Model Not Loaded"
	LabelNotALeaf       = "Unknown (Not a Leaf Image)"
	LabelLowConfidence  = "Unknown / Low Confidence"
	LabelError          = "Error"
)

// Outcome tells why a Result carries the label it does.
type Outcome int

const (
	Success Outcome = iota
	LowConfidence
	NotALeaf
	ModelUnavailable
	DecodeError
	InferenceError
)

var outcomeNames = map[Outcome]string{
	Success:          "success",
	LowConfidence:    "low_confidence",
	NotALeaf:         "not_a_leaf",
	ModelUnavailable: "model_unavailable",
	DecodeError:      "decode_error",
	InferenceError:   "inference_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Cacheable reports whether the same image bytes always produce this outcome.
func (o Outcome) Cacheable() bool {
	return o == Success || o == LowConfidence || o == NotALeaf
}

// Result is the output of a prediction. Label and Confidence form the
// external contract; Outcome and Err make the cause inspectable.
type Result struct {
	Outcome    Outcome
	Label      string
	Confidence float64 // percentage in [0,100]
	Err        error
}

func successResult(label string, confidence float64) Result {
	return Result{Outcome: Success, Label: label, Confidence: confidence}
}

func lowConfidenceResult(confidence float64) Result {
	return Result{Outcome: LowConfidence, Label: LabelLowConfidence, Confidence: confidence}
}

func notALeafResult() Result {
	return Result{Outcome: NotALeaf, Label: LabelNotALeaf}
}

func modelUnavailableResult() Result {
	return Result{Outcome: ModelUnavailable, Label: LabelModelNotLoaded}
}

func decodeErrorResult(err error) Result {
	return Result{Outcome: DecodeError, Label: LabelError, Err: err}
}

func inferenceErrorResult(err error) Result {
	return Result{Outcome: InferenceError, Label: LabelError, Err: err}
}

// toPercent converts a probability to a percentage rounded to two decimals.
func toPercent(probability float32) float64 {
	return math.Round(float64(probability)*100*100) / 100
}

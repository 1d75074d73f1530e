package prediction

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes the model artifact and its tensor names.
type ONNXConfig struct {
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	Layout            Layout
}

// ONNXModel runs a classifier exported to ONNX. Each call allocates its own
// tensors, so concurrent Infer calls are safe.
type ONNXModel struct {
	session     *ort.DynamicAdvancedSession
	inputShape  ort.Shape
	outputShape ort.Shape
}

func LoadONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact not available at %s: %w", cfg.ModelPath, err)
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	inputShape := ort.NewShape(1, ModelInputSize, ModelInputSize, 3)
	if cfg.Layout == LayoutNCHW {
		inputShape = ort.NewShape(1, 3, ModelInputSize, ModelInputSize)
	}

	return &ONNXModel{
		session:     session,
		inputShape:  inputShape,
		outputShape: ort.NewShape(1, int64(len(ClassLabels))),
	}, nil
}

func (m *ONNXModel) Infer(input []float32) ([]float32, error) {
	inputTensor, err := ort.NewTensor(m.inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputTensor, err := ort.NewEmptyTensor[float32](m.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer func() { _ = outputTensor.Destroy() }()

	if err := m.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, err
	}

	output := outputTensor.GetData()
	probabilities := make([]float32, len(output))
	copy(probabilities, output)
	return probabilities, nil
}

func (m *ONNXModel) Close() error {
	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
	}
	errs = append(errs, ort.DestroyEnvironment())
	return errors.Join(errs...)
}

// NewONNXPredictorFromParams builds a Classifier backed by an ONNX model. A
// missing or unloadable model yields a disabled classifier, not an error.
func NewONNXPredictorFromParams(params map[string]any) (Predictor, error) {
	layout, err := ParseLayout(GetStringParam(params, "layout", string(LayoutNHWC)))
	if err != nil {
		return nil, err
	}

	cfg := ONNXConfig{
		ModelPath:         GetStringParam(params, "modelPath", "models/plant_disease.onnx"),
		SharedLibraryPath: GetStringParam(params, "sharedLibraryPath", ""),
		InputName:         GetStringParam(params, "inputName", "input"),
		OutputName:        GetStringParam(params, "outputName", "output"),
		Layout:            layout,
	}

	model, err := LoadONNXModel(cfg)
	if err != nil {
		slog.Warn("model could not be loaded; predictions disabled",
			"model_path", cfg.ModelPath, "error", err)
		return NewClassifier(nil, layout), nil
	}

	slog.Info("model loaded", "model_path", cfg.ModelPath, "layout", layout, "classes", len(ClassLabels))
	return NewClassifier(model, layout), nil
}

func init() {
	if err := DefaultRegistry.Register("onnx", NewONNXPredictorFromParams); err != nil {
		panic(fmt.Sprintf("failed to register onnx predictor: %v", err))
	}
}

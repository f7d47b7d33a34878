package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrFeatureShape marks payloads that cannot be shaped into the model's
// expected input (client error, not a model failure).
var ErrFeatureShape = errors.New("feature payload does not match model columns")

// Scorer wraps the ONNX anomaly classifier. The session and its tensors are
// allocated once at load time and reused; Run is serialized by a mutex.
type Scorer struct {
	session *ort.AdvancedSession
	columns []string
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
}

// NewScorer loads the model bundle: the ONNX file plus a feature-column
// manifest declaring the input column order the model was trained with.
func NewScorer(bundleDir string) (*Scorer, error) {
	if strings.TrimSpace(bundleDir) == "" {
		return nil, errors.New("bundle directory is empty")
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "fraud_model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	columns, err := loadColumns(filepath.Join(bundleDir, "feature_columns.json"))
	if err != nil {
		return nil, fmt.Errorf("load feature columns: %w", err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(columns))))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	// Binary classifier: probability of the positive class at index 1.
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"features"},
		[]string{"probabilities"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Scorer{session: session, columns: columns, input: input, output: output}, nil
}

// Columns returns the declared input column order.
func (s *Scorer) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Score runs a single-row inference and returns the positive-class
// probability. Every declared column must be present in the payload.
func (s *Scorer) Score(features map[string]float64) (float64, error) {
	if s == nil || s.session == nil {
		return 0, errors.New("scorer not initialized")
	}

	row := make([]float32, len(s.columns))
	for i, column := range s.columns {
		value, ok := features[column]
		if !ok {
			return 0, fmt.Errorf("%w: missing column %q", ErrFeatureShape, column)
		}
		row[i] = float32(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.input.GetData(), row)
	if err := s.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}

	raw := s.output.GetData()
	if len(raw) < 2 {
		return 0, fmt.Errorf("probability output has unexpected shape (%d values)", len(raw))
	}
	return float64(raw[1]), nil
}

// Close releases the session and its tensors.
func (s *Scorer) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
}

func loadColumns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errors.New("feature column manifest is empty")
	}
	return columns, nil
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins when set.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

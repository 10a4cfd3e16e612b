//go:build onnx

package minilm

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/blas/blas32"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime brings up the process-wide onnxruntime environment exactly
// once. The library path must be set before initialization, never after.
func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// Embedder runs a BERT-shaped sentence encoder through onnxruntime.
type Embedder struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	dims      int
	maxLen    int
}

// New loads the tokenizer and model and prepares an inference session.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("minilm: ModelPath is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("minilm: TokenizerPath is required")
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = DefaultMaxSeqLen
	}

	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Embedder{
		session:   session,
		tokenizer: tokenizer,
		dims:      cfg.Dimensions,
		maxLen:    cfg.MaxSeqLen,
	}, nil
}

// Embed tokenizes text, runs the model, mean-pools the attended token
// states, and scales the result to a unit vector, so downstream raw dot
// products read as cosine similarity.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ids, mask := e.tokenizer.Encode(text, e.maxLen)
	tokenTypes := make([]int64, e.maxLen)

	shape := ort.NewShape(1, int64(e.maxLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, tokenTypes)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	// Outputs are auto-allocated by Run.
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	if outputs[0] == nil {
		return nil, fmt.Errorf("onnx inference returned no output")
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	vec, err := e.pool(out.GetData(), out.GetShape(), mask)
	if err != nil {
		return nil, err
	}

	v := blas32.Vector{N: len(vec), Inc: 1, Data: vec}
	if n := blas32.Nrm2(v); n > 0 {
		blas32.Scal(1/n, v)
	}
	return vec, nil
}

// pool reduces the model output to a single vector. Exports of this model
// family come either pre-pooled ([1, dims]) or as raw hidden states
// ([1, seq, dims]); the latter gets mean pooling over attended positions.
func (e *Embedder) pool(data []float32, shape ort.Shape, mask []int64) ([]float32, error) {
	switch len(shape) {
	case 2:
		if int(shape[1]) != e.dims || len(data) < e.dims {
			return nil, fmt.Errorf("pooled output has %d dimensions, want %d", shape[1], e.dims)
		}
		vec := make([]float32, e.dims)
		copy(vec, data[:e.dims])
		return vec, nil

	case 3:
		if shape[0] != 1 {
			return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
		}
		seqLen, hidden := int(shape[1]), int(shape[2])
		if hidden != e.dims {
			return nil, fmt.Errorf("hidden size %d does not match dimensions %d", hidden, e.dims)
		}

		vec := make([]float32, e.dims)
		sum := blas32.Vector{N: hidden, Inc: 1, Data: vec}
		attended := float32(0)
		for i := 0; i < seqLen && i < len(mask); i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			blas32.Axpy(1, blas32.Vector{N: hidden, Inc: 1, Data: data[i*hidden : (i+1)*hidden]}, sum)
		}
		if attended > 0 {
			blas32.Scal(1/attended, sum)
		}
		return vec, nil

	default:
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Close releases the inference session.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

package tagger

import (
	"context"
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// Provider yields the model's full probability vector for an encoded
// image. Implementations are safe for concurrent use.
type Provider interface {
	Predict(ctx context.Context, data []byte) ([]float32, error)
	Vocab() *Vocab
}

var _ Provider = (*Tagger)(nil)

type model struct {
	session *ort.AdvancedSession
	input   ort.Value
	output  ort.Value
}

// Tagger runs a WD14 ONNX model in-process. Each worker owns a session
// with pre-bound tensors, handed out through a pool channel.
type Tagger struct {
	vocab  *Vocab
	pool   chan *model
	models []*model
}

func New(modelPath string, vocab *Vocab, workers int) (*Tagger, error) {
	if workers < 1 {
		workers = 1
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	t := &Tagger{
		vocab: vocab,
		pool:  make(chan *model, workers),
	}
	for range workers {
		inputTensor, err := ort.NewTensor(ort.NewShape(1, ImageSize, ImageSize, 3), make([]float32, ImageSize*ImageSize*3))
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("failed to create input tensor: %w", err)
		}
		outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(vocab.Tags))))
		if err != nil {
			inputTensor.Destroy()
			t.Close()
			return nil, fmt.Errorf("failed to create output tensor: %w", err)
		}
		session, err := ort.NewAdvancedSession(
			modelPath,
			[]string{inputs[0].Name},
			[]string{outputs[0].Name},
			[]ort.Value{inputTensor},
			[]ort.Value{outputTensor},
			opts,
		)
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			t.Close()
			return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
		}
		m := &model{session: session, input: inputTensor, output: outputTensor}
		t.models = append(t.models, m)
		t.pool <- m
	}
	slog.Info("Model loaded", slog.String("path", modelPath), slog.Int("sessions", workers))
	return t, nil
}

func (t *Tagger) Vocab() *Vocab { return t.vocab }

func (t *Tagger) Predict(ctx context.Context, data []byte) ([]float32, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	inputData := Preprocess(img)

	var m *model
	select {
	case m = <-t.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { t.pool <- m }()

	copy(m.input.(*ort.Tensor[float32]).GetData(), inputData)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	raw := m.output.(*ort.Tensor[float32]).GetData()
	probs := make([]float32, len(raw))
	copy(probs, raw)
	return probs, nil
}

// Close destroys every session and its tensors. The Tagger must not be
// used afterwards.
func (t *Tagger) Close() {
	for _, m := range t.models {
		m.session.Destroy()
		m.input.Destroy()
		m.output.Destroy()
	}
	t.models = nil
}

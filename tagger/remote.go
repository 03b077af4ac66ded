package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrServerUnreachable reports that the tagging server could not be
// reached at all, as opposed to rejecting one image. Callers use it to
// stop a batch instead of failing every remaining file.
var ErrServerUnreachable = errors.New("tagging server unreachable")

var _ Provider = (*Remote)(nil)

// Remote asks a running tagging server for predictions instead of
// loading the model locally. Images are posted as raw bytes, so the
// client machine needs neither ONNX Runtime nor the model weights.
type Remote struct {
	url    string
	token  string
	vocab  *Vocab
	client *http.Client
}

func NewRemote(host, port, token string, vocab *Vocab) *Remote {
	return &Remote{
		url:    fmt.Sprintf("http://%s:%s/predict", host, port),
		token:  token,
		vocab:  vocab,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *Remote) URL() string   { return r.url }
func (r *Remote) Vocab() *Vocab { return r.vocab }

func (r *Remote) Predict(ctx context.Context, data []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var probs []float32
	if err := json.NewDecoder(resp.Body).Decode(&probs); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}
	return probs, nil
}

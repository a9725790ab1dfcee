package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	analysis "github.com/examease/backend/internal/analysis/emotion"
)

const maxClassifierResponse = 1 << 20

// DeepFaceClassifier calls a DeepFace-compatible /analyze service.
type DeepFaceClassifier struct {
	endpoint string
	client   *http.Client
}

// NewDeepFaceClassifier targets baseURL/analyze.
func NewDeepFaceClassifier(baseURL string, client *http.Client) *DeepFaceClassifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &DeepFaceClassifier{
		endpoint: strings.TrimRight(baseURL, "/") + "/analyze",
		client:   client,
	}
}

type deepFaceRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// Classify implements Classifier.
func (c *DeepFaceClassifier) Classify(ctx context.Context, frame *analysis.Frame) (analysis.Result, error) {
	img, err := frame.DataURL()
	if err != nil {
		return analysis.Result{}, err
	}

	body, err := json.Marshal(deepFaceRequest{
		Img:              img,
		Actions:          []string{"emotion"},
		EnforceDetection: false,
	})
	if err != nil {
		return analysis.Result{}, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return analysis.Result{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifierResponse))
	if err != nil {
		return analysis.Result{}, fmt.Errorf("read analyze response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return analysis.Result{}, fmt.Errorf("analyze returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return analysis.DecodeResult(data)
}

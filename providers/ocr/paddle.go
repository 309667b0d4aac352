package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lingopix-project/lingopix/engine/merge"
	"github.com/lingopix-project/lingopix/pkg/utils"
)

// paddleProvider talks to a locally hosted PaddleOCR HTTP service
// (paddlehub serving). The image goes up as base64, detections come back as
// (region polygon, text, confidence) triples.
type paddleProvider struct {
	endpoint string
	client   *http.Client
}

// NewPaddle builds a provider over a PaddleOCR serving endpoint, e.g.
// "http://127.0.0.1:8868/predict/ocr_system".
func NewPaddle(endpoint string) Provider {
	return &paddleProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleDetection struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	TextRegion [][2]float64 `json:"text_region"`
}

type paddleResponse struct {
	Results [][]paddleDetection `json:"results"`
	Msg     string              `json:"msg"`
	Status  string              `json:"status"`
}

func (p *paddleProvider) DetectText(ctx context.Context, imageBytes []byte) ([]merge.Fragment, error) {
	body, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(imageBytes)},
	})
	if err != nil {
		return nil, fmt.Errorf("paddle request encoding: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("paddle request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("paddle call: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paddle call: unexpected status %s", response.Status)
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("paddle response read: %w", err)
	}

	var decoded paddleResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("paddle response decoding: %w", err)
	}
	if decoded.Status != "" && decoded.Status != "000" {
		return nil, fmt.Errorf("paddle service error: %s %s", decoded.Status, decoded.Msg)
	}

	detections := utils.FlatMap(decoded.Results, func(image []paddleDetection) []paddleDetection {
		return image
	})
	return utils.Reduce(detections, func(fragments []merge.Fragment, d paddleDetection) []merge.Fragment {
		fragment, ok := merge.NewFragment(d.Text, d.TextRegion)
		if !ok {
			log.Printf("paddle: skipping malformed detection %q", d.Text)
			return fragments
		}
		return append(fragments, fragment)
	}, nil), nil
}

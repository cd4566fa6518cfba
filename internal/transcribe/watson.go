package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// WatsonClient transcribes audio through the IBM Watson Speech to Text
// recognize endpoint.
type WatsonClient struct {
	serviceURL string
	apiKey     string
	httpClient *http.Client
}

// NewWatsonClient creates a Watson STT client. serviceURL is the instance
// base URL (without the /v1/recognize path).
func NewWatsonClient(serviceURL, apiKey string) (*WatsonClient, error) {
	if strings.TrimSpace(serviceURL) == "" {
		return nil, errors.New("transcribe: watson service url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("transcribe: watson api key is required")
	}
	return &WatsonClient{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// watsonRecognition mirrors the subset of the recognize response we read.
type watsonRecognition struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// TranscribeMedia downloads the attachment and submits it for recognition.
func (c *WatsonClient) TranscribeMedia(ctx context.Context, mediaURL, contentType string) (string, error) {
	audio, err := c.fetchMedia(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	return c.recognize(ctx, audio, contentType)
}

func (c *WatsonClient) fetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcribe: invalid media url: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: media fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcribe: media fetch returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *WatsonClient) recognize(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcribe: empty audio payload")
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serviceURL+"/v1/recognize", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("transcribe: build recognize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: recognize request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcribe: recognize returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var recognition watsonRecognition
	if err := json.NewDecoder(resp.Body).Decode(&recognition); err != nil {
		return "", fmt.Errorf("transcribe: decode recognize response: %w", err)
	}

	if len(recognition.Results) == 0 || len(recognition.Results[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(recognition.Results[0].Alternatives[0].Transcript), nil
}

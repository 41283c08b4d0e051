// Package media re-hosts inbound WhatsApp attachments. Raw file references
// from the channel expire quickly, so each one is handed to the storage
// gateway which downloads it and returns a durable object key.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Uploader re-hosts a channel file reference and returns the public URL.
type Uploader interface {
	Rehost(ctx context.Context, fileRef, fileType string) (string, error)
}

// GatewayUploader implements Uploader against the storage gateway.
type GatewayUploader struct {
	UploadURL     string
	PublicBaseURL string

	httpClient *http.Client
}

// NewGatewayUploader creates an uploader for the configured gateway.
func NewGatewayUploader(uploadURL, publicBaseURL string) *GatewayUploader {
	return &GatewayUploader{
		UploadURL:     uploadURL,
		PublicBaseURL: publicBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadRequest struct {
	File     string `json:"file"`
	FileType string `json:"fileType"`
}

type uploadResponse struct {
	Key string `json:"key"`
}

// Rehost asks the gateway to fetch the channel file and store it. The
// returned URL is the public location of the stored object.
func (u *GatewayUploader) Rehost(ctx context.Context, fileRef, fileType string) (string, error) {
	body, err := json.Marshal(uploadRequest{File: fileRef, FileType: fileType})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.UploadURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload media: gateway returned status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if out.Key == "" {
		return "", fmt.Errorf("upload media: gateway returned no object key")
	}

	return strings.TrimSuffix(u.PublicBaseURL, "/") + "/" + out.Key, nil
}

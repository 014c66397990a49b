package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/kebunku/internal/config"
	"github.com/mamadbah2/kebunku/internal/media"
)

// APIClient is a resty-backed unsigned-upload client for Cloudinary.
type APIClient struct {
	httpClient   *resty.Client
	cloudName    string
	uploadPreset string
}

// NewClient builds a Cloudinary client using the provided configuration values.
func NewClient(cfg config.MediaConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.CloudinaryBaseURL, "/")).
		SetTimeout(cfg.UploadTimeout)

	return &APIClient{
		httpClient:   restyClient,
		cloudName:    cfg.CloudinaryCloudName,
		uploadPreset: cfg.CloudinaryUploadPreset,
	}
}

// uploadResponse mirrors the fields we use from a successful upload.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// apiError represents a Cloudinary error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one image to activities/<ownerID> and returns its secure URL.
// Cancelling ctx aborts the transfer.
func (c *APIClient) Upload(ctx context.Context, ownerID string, file media.File, onProgress media.ProgressFunc) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner id must not be empty")
	}

	name := file.Name
	if name == "" {
		name = fmt.Sprintf("photo_%d%s", time.Now().UnixNano(), media.ExtensionFor(file.ContentType))
	}

	body := media.NewProgressReader(bytes.NewReader(file.Data), int64(len(file.Data)), onProgress)
	result := new(uploadResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetMultipartField("file", name, file.ContentType, body).
		SetMultipartFormData(map[string]string{
			"upload_preset": c.uploadPreset,
			"folder":        "activities/" + ownerID,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("v1_1/%s/image/upload", c.cloudName))
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error.Message
		if message == "" {
			message = resp.String()
		}
		return "", fmt.Errorf("cloudinary api error: status=%d, message=%s", resp.StatusCode(), message)
	}

	if result.SecureURL == "" {
		return "", errors.New("cloudinary response missing secure_url")
	}
	return result.SecureURL, nil
}

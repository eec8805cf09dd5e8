// Package imgstore uploads image buffers to a Cloudinary-compatible media
// CDN using signed unauthenticated-preset-free requests.
package imgstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
)

// Client implements the domain.ImageStore interface
type Client struct {
	httpClient *http.Client
	uploadURL  string
	apiKey     string
	apiSecret  string
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient creates media CDN api client
func NewClient(uploadURL, apiKey, apiSecret string, timeout time.Duration, logger *zap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		logger:     logger,
		tracer:     tracer,
	}
}

// Upload stores the buffer under publicID and returns the served location
func (c *Client) Upload(ctx context.Context, data []byte, publicID string) (string, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"imgstore Upload",
		trace.WithAttributes(
			attribute.String("publicid", publicID),
			attribute.Int("size", len(data))),
	)
	defer span.End()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)

	fields := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
		"api_key":   c.apiKey,
		"signature": c.sign(publicID, timestamp),
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("can't build upload form: %w: %s", domain.ErrInternalServerError, err.Error())
		}
	}

	part, err := form.CreateFormFile("file", publicID)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("can't build upload form: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	if _, err = part.Write(data); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("can't build upload form: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	if err = form.Close(); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("can't build upload form: %w: %s", domain.ErrInternalServerError, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("can't build upload request: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("image upload failed: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("can't close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err = fmt.Errorf("media CDN returned %d: %s: %w", resp.StatusCode, string(errBody), domain.ErrInternalServerError)
		span.RecordError(err)
		return "", err
	}

	var uploaded struct {
		SecureURL string `json:"secure_url"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("can't decode upload response: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	if uploaded.SecureURL == "" {
		err = fmt.Errorf("upload response carries no location: %w", domain.ErrInternalServerError)
		span.RecordError(err)
		return "", err
	}

	return uploaded.SecureURL, nil
}

// sign builds the request signature: SHA-1 over the sorted non-file params
// concatenated with the api secret
func (c *Client) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

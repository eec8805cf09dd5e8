// Package payment integrates the hosted checkout provider: an HTTP client
// that opens checkout sessions and a verifier for its signed webhook events.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
)

// Client talks to the checkout provider's REST API. It implements the
// domain.PaymentGateway interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient creates payment api client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
		tracer:     tracer,
	}
}

// CreateSession opens a hosted checkout session for one line item. Every
// call carries a fresh idempotency key, retries happen at the webhook side.
func (c *Client) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"payment CreateSession",
		trace.WithAttributes(
			attribute.String("tourid", req.TourID)),
	)
	defer span.End()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", req.CustomerEmail)
	form.Set("client_reference_id", req.ClientUserID)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][quantity]", strconv.Itoa(req.Quantity))
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.TourName)
	form.Set("line_items[0][price_data][product_data][description]", req.Summary)
	if req.ImageURL != "" {
		form.Set("line_items[0][price_data][product_data][images][0]", req.ImageURL)
	}
	form.Set("metadata[tour_id]", req.TourID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("can't build checkout request: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("checkout request failed: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("can't close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err = fmt.Errorf("checkout provider returned %d: %s: %w", resp.StatusCode, string(body), domain.ErrInternalServerError)
		span.RecordError(err)
		return nil, err
	}

	session := new(domain.CheckoutSession)
	if err = json.NewDecoder(resp.Body).Decode(session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("can't decode checkout session: %w: %s", domain.ErrInternalServerError, err.Error())
	}
	span.SetAttributes(attribute.String("sessionid", session.ID))

	return session, nil
}

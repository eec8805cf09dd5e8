package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dhruvjyotiray/natours/domain"
)

// EventCompleted is the webhook event type that confirms a paid session
const EventCompleted = "checkout.session.completed"

// signatureTolerance bounds the age of an accepted event to blunt replay of
// captured payloads
const signatureTolerance = 5 * time.Minute

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			CustomerEmail     string            `json:"customer_email"`
			AmountTotal       int64             `json:"amount_total"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent verifies the webhook signature header (t=<unix>,v1=<hmac hex>,
// HMAC-SHA256 over "<t>.<payload>") and extracts the confirmation from a
// completed-session event. Events of any other type yield a nil confirmation.
func ParseEvent(payload []byte, sigHeader, secret string, now time.Time) (*domain.PaymentConfirmation, error) {
	timestamp, signature, err := splitSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	issued := time.Unix(timestamp, 0)
	if now.Sub(issued) > signatureTolerance || issued.Sub(now) > signatureTolerance {
		return nil, fmt.Errorf("webhook timestamp outside tolerance: %w", domain.ErrAuthenticationFailure)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("webhook signature is not hex: %w", domain.ErrAuthenticationFailure)
	}
	if !hmac.Equal(expected, got) {
		return nil, fmt.Errorf("webhook signature mismatch: %w", domain.ErrAuthenticationFailure)
	}

	event := new(webhookEvent)
	if err = json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("can't decode webhook event: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	if event.Type != EventCompleted {
		return nil, nil
	}

	confirmation := &domain.PaymentConfirmation{
		SessionID:   event.Data.Object.ID,
		TourID:      event.Data.Object.Metadata["tour_id"],
		UserEmail:   event.Data.Object.CustomerEmail,
		AmountCents: event.Data.Object.AmountTotal,
	}
	if confirmation.SessionID == "" || confirmation.TourID == "" || confirmation.UserEmail == "" {
		return nil, fmt.Errorf("webhook event is missing session, tour or customer: %w", domain.ErrBadParamInput)
	}

	return confirmation, nil
}

func splitSignatureHeader(header string) (timestamp int64, signature string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("webhook timestamp is not a number: %w", domain.ErrAuthenticationFailure)
			}
		case "v1":
			signature = v
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", fmt.Errorf("webhook signature header is malformed: %w", domain.ErrAuthenticationFailure)
	}

	return timestamp, signature, nil
}

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resellpay/resellpay_backend/models"
)

// ProcessorService is the thin client for the external payout processor. It
// lives outside the pricing/ledger core: the payout controller calls it after
// the hold is applied, and the processor's callback drives the settlement to
// success or failure.
type ProcessorService struct {
	baseURL     string
	merchantID  string
	secret      string
	callbackURL string
	client      *http.Client
}

// NewProcessorService reads the processor configuration from the environment.
func NewProcessorService() *ProcessorService {
	baseURL := os.Getenv("PROCESSOR_BASE_URL")
	merchantID := os.Getenv("PROCESSOR_MERCHANT_ID")
	secret := os.Getenv("PROCESSOR_SECRET")
	callbackURL := os.Getenv("PROCESSOR_CALLBACK_URL")

	if baseURL == "" || merchantID == "" || secret == "" {
		log.Printf("WARNING: processor credentials not fully configured:")
		if baseURL == "" {
			log.Printf("  - PROCESSOR_BASE_URL is missing")
		}
		if merchantID == "" {
			log.Printf("  - PROCESSOR_MERCHANT_ID is missing")
		}
		if secret == "" {
			log.Printf("  - PROCESSOR_SECRET is missing")
		}
		log.Printf("Payout submission will fail until these are set")
	}

	return &ProcessorService{
		baseURL:     baseURL,
		merchantID:  merchantID,
		secret:      secret,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitPayout asks the processor to execute a payout. The reference is the
// settlement reference; the processor echoes it in its callback.
func (s *ProcessorService) SubmitPayout(amount decimal.Decimal, currency, destination, reference string) error {
	payload := models.ProcessorPayoutRequest{
		Amount:      amount.StringFixed(2),
		Currency:    currency,
		Destination: destination,
		Reference:   reference,
		CallbackURL: s.callbackURL,
	}
	_, err := s.makeRequest(http.MethodPost, "payouts", payload)
	return err
}

// PayoutStatus polls the processor for a payout's current state. Used by the
// reconciliation loop for settlements stuck in CREATED.
func (s *ProcessorService) PayoutStatus(reference string) (*models.ProcessorStatusData, error) {
	resp, err := s.makeRequest(http.MethodGet, "payouts/"+reference, nil)
	if err != nil {
		return nil, err
	}

	status := &models.ProcessorStatusData{Reference: reference}
	if raw, ok := resp.Data["payoutStatus"].(string); ok {
		status.PayoutStatus = raw
	}
	return status, nil
}

func (s *ProcessorService) makeRequest(method, endpoint string, payload interface{}) (*models.ProcessorResponse, error) {
	if s.baseURL == "" || s.merchantID == "" || s.secret == "" {
		return nil, fmt.Errorf("missing processor credentials; set PROCESSOR_BASE_URL, PROCESSOR_MERCHANT_ID and PROCESSOR_SECRET")
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, s.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", s.merchantID)
	req.Header.Set("secret", s.secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if os.Getenv("PROCESSOR_DEBUG") == "true" {
		log.Printf("processor %s %s -> %s", method, endpoint, string(respBody))
	}

	var procResp models.ProcessorResponse
	if err := json.Unmarshal(respBody, &procResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !procResp.Status {
		code := "unknown"
		if procResp.Code != nil {
			code = fmt.Sprintf("%v", procResp.Code)
		}
		return &procResp, fmt.Errorf("processor error: %s", code)
	}

	return &procResp, nil
}

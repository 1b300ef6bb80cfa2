package models

// ProcessorPayoutRequest is the body sent to the external payout processor.
type ProcessorPayoutRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// ProcessorResponse is the standard response structure from the processor API.
type ProcessorResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"` // Can be string or null
	Data   map[string]interface{} `json:"data"`
}

// ProcessorStatusData reports the processor-side state of a payout.
type ProcessorStatusData struct {
	PayoutStatus string `json:"payoutStatus"`
	Reference    string `json:"reference"`
}

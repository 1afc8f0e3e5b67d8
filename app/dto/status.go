package dto

type PaymentDetailsResponse struct {
	Status         string `json:"status,omitempty"`
	Message        string `json:"message,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	CompletedAt    string `json:"completed_at,omitempty"`
}

type PaymentStatusResponse struct {
	PaymentID string                  `json:"payment_id"`
	State     string                  `json:"state"`
	Terminal  bool                    `json:"terminal"`
	Details   *PaymentDetailsResponse `json:"details,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
	Code      int                     `json:"code,omitempty"`
	Kind      string                  `json:"kind,omitempty"`
	Checks    int                     `json:"checks"`
	UpdatedAt string                  `json:"updated_at,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

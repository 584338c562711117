package http

// APIResponse is the envelope of every JSON API response. Status repeats
// the logical status; the HTTP status line is 200 except for /health and
// recovered panics.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"investor_type"`
	Message string                 `json:"message,omitempty" example:"investor_type is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

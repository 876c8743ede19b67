package models

// BasicResponse is a generic status payload
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ErrorResponse is the uniform error shape returned to the browser
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse wraps an upstream payload with a status message
type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Token   string      `json:"token,omitempty"`
}

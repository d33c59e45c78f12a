package dto

// Envelope wraps every response body
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

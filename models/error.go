package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// SubmissionError is returned for blocking submission failures. The discrete
// flags let the client render a specific message instead of a generic one.
type SubmissionError struct {
	Error              string  `json:"error"`
	MultipleCategories bool    `json:"multipleCategories,omitempty"`
	BelowThreshold     bool    `json:"belowThreshold,omitempty"`
	Categories         []string `json:"categories,omitempty"`
	MinConfidence      float64 `json:"minConfidence,omitempty"`
}

// HealthCheckResponse is the body of the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

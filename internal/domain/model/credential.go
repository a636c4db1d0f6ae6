package model

import "time"

// Credential is a stored secret for an external service such as the
// classification model provider ("anthropic").
type Credential struct {
	Service   string
	Value     string
	UpdatedAt time.Time
}

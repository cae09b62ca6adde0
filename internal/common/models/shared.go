package models

import (
	"time"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

// Log is the document shape written to the `logs` collection by the
// async zap sink.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"` // Actual IP
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}

package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUser      = "user"
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)

// Headers
const (
	HeaderRequestID     = "X-Request-Id"
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)

// Validation limits
const (
	MinPasswordLength = 6
	// bcrypt only looks at the first 72 bytes of its input.
	MaxPasswordLength = 72
	MinUsernameLength = 3
)

// Token defaults
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultRotationLockTTL = 5 * time.Second
)

// Task suggestions
const (
	MaxSuggestedTasks   = 20
	MaxSuggestTextBytes = 4000
)

const DefaultTaskTitle = "Welcome! Tick this task off to get started"

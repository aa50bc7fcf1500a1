package servicetype

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Common errors
var (
	ErrInvalidCode = errors.New("code must be 1-32 characters of letters, digits or underscore")
	ErrEmptyLabel  = errors.New("label cannot be empty")
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_]{1,32}$`)

// ServiceType is a category a payment can be recorded against
type ServiceType struct {
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeCode canonicalizes a service type code for storage and lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewServiceType creates an active service type
func NewServiceType(code, label string) (*ServiceType, error) {
	code = NormalizeCode(code)
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidCode
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}

	now := time.Now().UTC()
	return &ServiceType{
		Code:      code,
		Label:     label,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timeFormat = time.RFC3339Nano

// ErrInvalidToken is returned for any token that was not produced by EncodeToken
var ErrInvalidToken = errors.New("invalid pagination token")

// Position identifies the last row of a page in (posted date, creation time, id) order
type Position struct {
	PostedDate time.Time
	CreatedAt  time.Time
	ID         uuid.UUID
}

// EncodeToken creates an opaque URL-safe token for the position after which the next page starts.
func EncodeToken(pos Position) string {
	tokenStr := strings.Join([]string{
		pos.PostedDate.UTC().Format(timeFormat),
		pos.CreatedAt.UTC().Format(timeFormat),
		pos.ID.String(),
	}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a token produced by EncodeToken
func DecodeToken(token string) (Position, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Position{}, fmt.Errorf("%w (base64 decode): %v", ErrInvalidToken, err)
	}

	parts := strings.Split(string(decodedBytes), "|")
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("%w (split)", ErrInvalidToken)
	}

	postedDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Position{}, fmt.Errorf("%w (posted date parse): %v", ErrInvalidToken, err)
	}

	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("%w (created_at parse): %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(parts[2])
	if err != nil {
		return Position{}, fmt.Errorf("%w (id parse): %v", ErrInvalidToken, err)
	}

	return Position{PostedDate: postedDate, CreatedAt: createdAt, ID: id}, nil
}

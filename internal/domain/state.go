package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const stateSegmentBytes = 12

// OAuthState is the anti-forgery value round-tripped through the provider redirect.
// Value is random segments around a base36 timestamp, e.g. "<rand>_<ts>_<rand>".
type OAuthState struct {
	Value     string
	CreatedAt time.Time
}

// NewOAuthState generates a fresh state value
func NewOAuthState(now time.Time) (OAuthState, error) {
	first, err := randomSegment()
	if err != nil {
		return OAuthState{}, err
	}
	second, err := randomSegment()
	if err != nil {
		return OAuthState{}, err
	}

	value := strings.Join([]string{
		first,
		strconv.FormatInt(now.UnixMilli(), 36),
		second,
	}, "_")

	return OAuthState{Value: value, CreatedAt: now}, nil
}

func randomSegment() (string, error) {
	var buf [stateSegmentBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// timeFormat keeps nanosecond precision so a decoded cursor rebinds to the
// exact stored row values.
const timeFormat = time.RFC3339Nano

// EncodeToken builds an opaque cursor from a journal entry timestamp and its
// creation time, the two-field sort key of entry listings.
func EncodeToken(entryTimestamp time.Time, createdAt time.Time) string {
	payload := entryTimestamp.Format(timeFormat) + "|" + createdAt.Format(timeFormat)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// DecodeToken parses a cursor produced by EncodeToken.
func DecodeToken(token string) (time.Time, time.Time, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token (missing separator)")
	}
	entryTimestamp, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token (entry timestamp parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token (created_at parse): %w", err)
	}
	return entryTimestamp, createdAt, nil
}

// EncodeDateBasedToken builds a cursor from a single time field, used by
// ledger listings ordered on creation time.
func EncodeDateBasedToken(date time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(date.Format(timeFormat)))
}

// DecodeDateBasedToken parses a cursor produced by EncodeDateBasedToken.
func DecodeDateBasedToken(token string) (time.Time, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token (base64 decode): %w", err)
	}
	date, err := time.Parse(timeFormat, string(decoded))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token (date parse): %w", err)
	}
	return date, nil
}

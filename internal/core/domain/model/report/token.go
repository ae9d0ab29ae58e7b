package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"
)

// PaginationToken resumes a report after ExclusiveStartKey under the
// Parameters it was issued for.
type PaginationToken struct {
	Parameters        Parameters
	ExclusiveStartKey kernel.UUID
}

type tokenDocument struct {
	Event         string     `json:"event"`
	ReportedAfter *time.Time `json:"reportedAfter,omitempty"`
	SampledAfter  *time.Time `json:"sampledAfter,omitempty"`
	StartKey      string     `json:"startKey"`
}

// Encode serializes the token to a URL-safe string.
func (t PaginationToken) Encode() (string, error) {
	doc := tokenDocument{
		Event:         t.Parameters.event,
		ReportedAfter: t.Parameters.reportedAfter,
		SampledAfter:  t.Parameters.sampledAfter,
		StartKey:      t.ExclusiveStartKey.String(),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode pagination token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodePaginationToken parses a token produced by Encode. Any malformed
// input is reported as an invalid value, never a panic.
func DecodePaginationToken(s string) (PaginationToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return PaginationToken{}, errs.NewValueIsInvalidErrorWithCause("pagination token", err)
	}

	var doc tokenDocument
	if err = json.Unmarshal(raw, &doc); err != nil {
		return PaginationToken{}, errs.NewValueIsInvalidErrorWithCause("pagination token", err)
	}

	params, err := NewParameters(doc.Event, doc.ReportedAfter, doc.SampledAfter)
	if err != nil {
		return PaginationToken{}, errs.NewValueIsInvalidErrorWithCause("pagination token", err)
	}
	key, err := kernel.UUIDFromString(doc.StartKey)
	if err != nil {
		return PaginationToken{}, errs.NewValueIsInvalidErrorWithCause("pagination token", err)
	}

	return PaginationToken{Parameters: params, ExclusiveStartKey: key}, nil
}

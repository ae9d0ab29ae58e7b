package report_test

import (
	"encoding/base64"
	"testing"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/model/report"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParameters(t *testing.T) {
	t.Run("should require event", func(t *testing.T) {
		_, err := report.NewParameters("  ", nil, nil)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should compare timestamps by instant", func(t *testing.T) {
		utc := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		vienna := utc.In(time.FixedZone("CET", 3600))

		a, _ := report.NewParameters("ev-1", &utc, nil)
		b, _ := report.NewParameters("ev-1", &vienna, nil)
		c, _ := report.NewParameters("ev-1", nil, nil)
		d, _ := report.NewParameters("ev-2", &utc, nil)

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, a.Equal(d))
	})
}

func TestPaginationToken_RoundTrip(t *testing.T) {
	reported := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	sampled := time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)
	params, err := report.NewParameters("ev-1", &reported, &sampled)
	require.NoError(t, err)
	token := report.PaginationToken{Parameters: params, ExclusiveStartKey: kernel.NewUUID()}

	encoded, err := token.Encode()
	require.NoError(t, err)
	decoded, err := report.DecodePaginationToken(encoded)
	require.NoError(t, err)

	assert.True(t, decoded.Parameters.Equal(params))
	assert.True(t, decoded.ExclusiveStartKey.IsEqual(token.ExclusiveStartKey))
}

func TestDecodePaginationToken_Malformed(t *testing.T) {
	inputs := map[string]string{
		"not base64":       "%%%",
		"not json":         base64.RawURLEncoding.EncodeToString([]byte("nope")),
		"missing event":    base64.RawURLEncoding.EncodeToString([]byte(`{"startKey":"550e8400-e29b-41d4-a716-446655440000"}`)),
		"bad start key":    base64.RawURLEncoding.EncodeToString([]byte(`{"event":"ev","startKey":"x"}`)),
		"wrong json shape": base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3]`)),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := report.DecodePaginationToken(input)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		})
	}
}

func TestEntryFromOrder(t *testing.T) {
	number, _ := order.ParseExternal("1234567890")
	site := "site-1"
	build := func(metadata map[string]any, result order.Result) *order.Order {
		o, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{
			TestSiteID: &site,
			Metadata:   metadata,
		})
		require.NoError(t, err)
		require.NoError(t, o.ReportResult(result, "lab-1", nil, nil, time.Now()))
		return o
	}

	t.Run("should project complete order", func(t *testing.T) {
		o := build(map[string]any{"event": "ev-1", "ticket": "T-9"}, order.ResultNegative)

		entry, err := report.EntryFromOrder(o)

		require.NoError(t, err)
		assert.Equal(t, "ev-1", entry.EventID)
		assert.Equal(t, "T-9", entry.TicketID)
		assert.Equal(t, "1234567890", entry.OrderNumber)
		assert.Equal(t, "site-1", entry.TestSiteID)
		assert.Equal(t, "lab-1", entry.LabID)
	})

	t.Run("should fail without ticket", func(t *testing.T) {
		_, err := report.EntryFromOrder(build(map[string]any{"event": "ev-1"}, order.ResultNegative))
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should fail without reported at", func(t *testing.T) {
		_, err := report.EntryFromOrder(build(map[string]any{"event": "ev-1", "ticket": "T"}, order.ResultPending))
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

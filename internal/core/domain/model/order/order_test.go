package order_test

import (
	"testing"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func newTestOrder(t *testing.T, target *string) *order.Order {
	t.Helper()
	number, err := order.ParseExternal("1234567890")
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{
		TestSiteID:         ptr("site-1"),
		NotificationTarget: target,
		IssuedAt:           time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("should create in progress order without target", func(t *testing.T) {
		o := newTestOrder(t, nil)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.InProgress, o.Status())
		assert.Empty(t, o.NotificationTargets())
		assert.Nil(t, o.ReportedAt())
		assert.Equal(t, "site-1", *o.TestSiteID())
	})

	t.Run("should create order with single target", func(t *testing.T) {
		o := newTestOrder(t, ptr("https://hook.example/a"))

		assert.Equal(t, []string{"https://hook.example/a"}, o.NotificationTargets())
	})

	t.Run("should join all validation errors", func(t *testing.T) {
		o, err := order.NewOrder(kernel.UUID{}, nil, "", order.Registration{})

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "order number")
		assert.Contains(t, err.Error(), "sample")
	})

	t.Run("zero value order is not constructed", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_MergeRegistration(t *testing.T) {
	issuedLater := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	t.Run("should be idempotent for a present target", func(t *testing.T) {
		o := newTestOrder(t, ptr("app@token"))

		err := o.MergeRegistration(order.Registration{NotificationTarget: ptr("app@token"), IssuedAt: issuedLater})

		require.NoError(t, err)
		assert.Equal(t, []string{"app@token"}, o.NotificationTargets())
		assert.Equal(t, issuedLater, o.IssuedAt())
	})

	t.Run("should accept three targets and reject the fourth", func(t *testing.T) {
		o := newTestOrder(t, ptr("t1"))
		require.NoError(t, o.MergeRegistration(order.Registration{NotificationTarget: ptr("t2"), IssuedAt: issuedLater}))
		require.NoError(t, o.MergeRegistration(order.Registration{NotificationTarget: ptr("t3"), IssuedAt: issuedLater}))

		err := o.MergeRegistration(order.Registration{
			NotificationTarget: ptr("t4"),
			TestSiteID:         ptr("site-2"),
			IssuedAt:           issuedLater.Add(time.Hour),
		})

		require.ErrorIs(t, err, errs.ErrConflict)
		assert.Equal(t, []string{"t1", "t2", "t3"}, o.NotificationTargets())
		assert.Equal(t, "site-1", *o.TestSiteID())
		assert.Equal(t, issuedLater, o.IssuedAt())
	})

	t.Run("should refresh test site and metadata", func(t *testing.T) {
		o := newTestOrder(t, nil)

		err := o.MergeRegistration(order.Registration{
			TestSiteID: ptr("site-2"),
			Metadata:   map[string]any{"event": "ev-1"},
			IssuedAt:   issuedLater,
		})

		require.NoError(t, err)
		assert.Equal(t, "site-2", *o.TestSiteID())
		event, ok := o.MetadataString(order.MetadataEventKey)
		assert.True(t, ok)
		assert.Equal(t, "ev-1", event)
	})

	t.Run("should conflict for terminal order", func(t *testing.T) {
		o := newTestOrder(t, nil)
		require.NoError(t, o.ReportResult(order.ResultNegative, "lab-1", nil, nil, issuedLater))

		err := o.MergeRegistration(order.Registration{IssuedAt: issuedLater})

		require.ErrorIs(t, err, errs.ErrConflict)
	})
}

func TestOrder_ReportResult(t *testing.T) {
	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

	t.Run("should finish order on terminal result", func(t *testing.T) {
		o := newTestOrder(t, nil)

		err := o.ReportResult(order.ResultPositive, "lab-1", ptr("PCR"), ptr("secret"), now)

		require.NoError(t, err)
		assert.Equal(t, order.Positive, o.Status())
		assert.Equal(t, "lab-1", *o.LabID())
		assert.Equal(t, "PCR", *o.TestType())
		assert.Equal(t, "secret", *o.VerificationSecret())
		require.NotNil(t, o.ReportedAt())
		assert.Equal(t, now, *o.ReportedAt())
	})

	t.Run("should keep order open on pending result", func(t *testing.T) {
		o := newTestOrder(t, nil)

		require.NoError(t, o.ReportResult(order.ResultPending, "lab-1", nil, nil, now))

		assert.Equal(t, order.InProgress, o.Status())
		assert.Nil(t, o.ReportedAt())
	})

	t.Run("should never clear an existing secret", func(t *testing.T) {
		o := newTestOrder(t, nil)
		require.NoError(t, o.ReportResult(order.ResultPending, "lab-1", nil, ptr("secret"), now))

		require.NoError(t, o.ReportResult(order.ResultNegative, "lab-1", nil, nil, now))

		assert.Equal(t, "secret", *o.VerificationSecret())
	})

	t.Run("should reject a second terminal result", func(t *testing.T) {
		o := newTestOrder(t, nil)
		require.NoError(t, o.ReportResult(order.ResultNegative, "lab-1", nil, nil, now))

		err := o.ReportResult(order.ResultPositive, "lab-2", nil, nil, now.Add(time.Hour))

		require.ErrorIs(t, err, errs.ErrConflict)
		assert.Equal(t, order.Negative, o.Status())
		assert.Equal(t, "lab-1", *o.LabID())
	})

	t.Run("should require lab id", func(t *testing.T) {
		o := newTestOrder(t, nil)

		err := o.ReportResult(order.ResultNegative, "", nil, nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Equal(t, order.InProgress, o.Status())
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("should round trip through snapshot", func(t *testing.T) {
		o := newTestOrder(t, ptr("app@token"))
		require.NoError(t, o.ReportResult(order.ResultNegative, "lab-1", nil, nil, time.Now()))

		restored, err := order.RestoreOrder(o.Snapshot())

		require.NoError(t, err)
		assert.Equal(t, o.Snapshot(), restored.Snapshot())
	})

	t.Run("should reject terminal status without reported at", func(t *testing.T) {
		snapshot := newTestOrder(t, nil).Snapshot()
		snapshot.Status = order.Negative

		_, err := order.RestoreOrder(snapshot)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_MetadataString(t *testing.T) {
	number, _ := order.ParseExternal("1234567890")
	o, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{
		Metadata: map[string]any{"event": "ev-1", "ticket": float64(123456789), "empty": "", "nested": map[string]any{}},
	})
	require.NoError(t, err)

	event, ok := o.MetadataString("event")
	assert.True(t, ok)
	assert.Equal(t, "ev-1", event)

	ticket, ok := o.MetadataString("ticket")
	assert.True(t, ok)
	assert.Equal(t, "123456789", ticket)

	_, ok = o.MetadataString("empty")
	assert.False(t, ok)
	_, ok = o.MetadataString("nested")
	assert.False(t, ok)
	_, ok = o.MetadataString("missing")
	assert.False(t, ok)
}

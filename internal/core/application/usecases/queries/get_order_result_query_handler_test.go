package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderFinder struct{ mock.Mock }

func (m *MockOrderFinder) FindByKey(ctx context.Context, number order.Number, sample order.Sample) (*order.Order, error) {
	args := m.Called(ctx, number, sample)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func reportedOrder(t *testing.T, secret *string) *order.Order {
	t.Helper()
	number, _ := order.ParseExternal("1234567890")
	o, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{})
	require.NoError(t, err)
	require.NoError(t, o.ReportResult(order.ResultNegative, "lab-1", nil, secret, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	return o
}

func TestGetOrderResultQueryHandler_Handle(t *testing.T) {
	secret := "s3cret"
	number, _ := order.ParseExternal("1234567890")

	t.Run("should return the result for the right secret", func(t *testing.T) {
		o := reportedOrder(t, &secret)
		finder := new(MockOrderFinder)
		finder.On("FindByKey", mock.Anything, number, order.Sample("SALIVA")).Return(o, nil).Once()
		query, err := queries.NewGetOrderResultQuery(number, "saliva", secret)
		require.NoError(t, err)

		resp, err := queries.NewGetOrderResultQueryHandler(finder).Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Equal(t, "1234567890", resp.OrderNumber)
		assert.Equal(t, "SALIVA", resp.Sample)
		assert.Equal(t, order.Negative, resp.Status)
		assert.Equal(t, o.ReportedAt(), resp.ReportedAt)
	})

	notFoundCases := map[string]struct {
		order *order.Order
		err   error
	}{
		"wrong secret":  {order: reportedOrder(t, &secret)},
		"no secret set": {order: reportedOrder(t, nil)},
		"missing order": {err: errs.NewObjectNotFoundError("order", "1234567890")},
	}
	for name, tc := range notFoundCases {
		t.Run("should hide "+name, func(t *testing.T) {
			finder := new(MockOrderFinder)
			finder.On("FindByKey", mock.Anything, number, order.Sample("SALIVA")).Return(tc.order, tc.err).Once()
			query, _ := queries.NewGetOrderResultQuery(number, "SALIVA", "guess")

			_, err := queries.NewGetOrderResultQueryHandler(finder).Handle(t.Context(), query)

			require.ErrorIs(t, err, errs.ErrObjectNotFound)
		})
	}

	t.Run("should pass through store errors", func(t *testing.T) {
		finder := new(MockOrderFinder)
		finder.On("FindByKey", mock.Anything, number, order.Sample("SALIVA")).Return(nil, errors.New("db down")).Once()
		query, _ := queries.NewGetOrderResultQuery(number, "SALIVA", secret)

		_, err := queries.NewGetOrderResultQueryHandler(finder).Handle(t.Context(), query)

		require.EqualError(t, err, "db down")
	})
}

func TestNewGetOrderResultQuery_InvalidInput(t *testing.T) {
	_, err := queries.NewGetOrderResultQuery(nil, "", "")

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

package queries

import (
	"context"
	"crypto/subtle"
	"errors"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"
)

// OrderFinder loads one order by its natural key.
type OrderFinder interface {
	FindByKey(ctx context.Context, number order.Number, sample order.Sample) (*order.Order, error)
}

// GetOrderResultQueryHandler answers anonymous result lookups. A missing
// order, an order without a secret and a wrong secret all look the same to
// the caller.
type GetOrderResultQueryHandler struct {
	finder OrderFinder
}

func NewGetOrderResultQueryHandler(finder OrderFinder) GetOrderResultQueryHandler {
	return GetOrderResultQueryHandler{finder: finder}
}

func (h GetOrderResultQueryHandler) Handle(ctx context.Context, query GetOrderResultQuery) (GetOrderResultQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderResultQueryResponse{}, err
	}

	notFound := errs.NewObjectNotFoundError("order", query.Number().String())

	o, err := h.finder.FindByKey(ctx, query.Number(), query.Sample())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return GetOrderResultQueryResponse{}, notFound
	}
	if err != nil {
		return GetOrderResultQueryResponse{}, err
	}

	stored := o.VerificationSecret()
	if stored == nil || subtle.ConstantTimeCompare([]byte(*stored), []byte(query.Secret())) != 1 {
		return GetOrderResultQueryResponse{}, notFound
	}

	return GetOrderResultQueryResponse{
		OrderNumber: o.Number().Value(),
		Sample:      o.Sample().String(),
		Status:      o.Status(),
		ReportedAt:  o.ReportedAt(),
	}, nil
}

package queries

import (
	"errors"
	"time"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/guard"
)

var ErrGetOrderResultQueryIsNotConstructed = errors.New(
	"GetOrderResultQuery must be created via NewGetOrderResultQuery constructor",
)

// GetOrderResultQuery looks up a result anonymously; the verification secret
// handed out with the sample is the only credential.
type GetOrderResultQuery struct {
	number order.Number
	sample order.Sample
	secret string

	guard guard.ConstructorGuard
}

func NewGetOrderResultQuery(number order.Number, sample, secret string) (GetOrderResultQuery, error) {
	q := GetOrderResultQuery{
		number: number,
		secret: secret,
		guard:  guard.NewConstructorGuard(),
	}

	var numberErr, secretErr error
	if number == nil {
		numberErr = errs.NewValueIsRequiredError("order number")
	}
	if secret == "" {
		secretErr = errs.NewValueIsRequiredError("verification secret")
	}
	s, sampleErr := order.NewSample(sample)
	q.sample = s

	if err := errors.Join(numberErr, sampleErr, secretErr); err != nil {
		return GetOrderResultQuery{}, err
	}
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderResultQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderResultQueryIsNotConstructed)
}

func (q GetOrderResultQuery) Number() order.Number { return q.number }
func (q GetOrderResultQuery) Sample() order.Sample { return q.sample }
func (q GetOrderResultQuery) Secret() string       { return q.secret }

// GetOrderResultQueryResponse is what an anonymous caller may learn about an order.
type GetOrderResultQueryResponse struct {
	OrderNumber string
	Sample      string
	Status      order.Status
	ReportedAt  *time.Time
}

// Package queries contains read-only operations over orders: negative-result
// reports for authorized clients and the anonymous result lookup.
package queries

import (
	"errors"
	"strings"

	"labtrack/internal/core/domain/model/report"
	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/guard"
)

const (
	// DefaultReportPageSize applies when the caller does not ask for a page size.
	DefaultReportPageSize = 100
	// MaxReportPageSize is the largest logical page a client may request.
	MaxReportPageSize = 1000
)

var ErrGenerateReportQueryIsNotConstructed = errors.New(
	"GenerateReportQuery must be created via NewGenerateReportQuery constructor",
)

// GenerateReportQuery asks for one page of negative results for an event.
//
// Example:
//
//	params, _ := report.NewParameters("event-42", nil, nil)
//	query, err := NewGenerateReportQuery("client-a", params, "", 50)
//	page, err := handler.Handle(ctx, query)
//	if page.NextPage != nil {
//	    token, _ := page.NextPage.Encode()
//	    // pass token back with the same parameters for the next page
//	}
type GenerateReportQuery struct {
	clientID string
	params   report.Parameters
	token    *report.PaginationToken
	pageSize int

	guard guard.ConstructorGuard
}

// NewGenerateReportQuery decodes the optional pagination token and checks the
// page size. A zero pageSize selects DefaultReportPageSize.
func NewGenerateReportQuery(
	clientID string,
	params report.Parameters,
	paginationToken string,
	pageSize int,
) (GenerateReportQuery, error) {
	q := GenerateReportQuery{
		params: params,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		q.setClientID(clientID),
		q.setToken(paginationToken),
		q.setPageSize(pageSize),
	); err != nil {
		return GenerateReportQuery{}, err
	}

	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GenerateReportQuery) Validate() error {
	return q.guard.Validate(ErrGenerateReportQueryIsNotConstructed)
}

func (q GenerateReportQuery) ClientID() string                         { return q.clientID }
func (q GenerateReportQuery) Parameters() report.Parameters            { return q.params }
func (q GenerateReportQuery) PaginationToken() *report.PaginationToken { return q.token }
func (q GenerateReportQuery) PageSize() int                            { return q.pageSize }

func (q *GenerateReportQuery) setClientID(clientID string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return errs.NewValueIsRequiredError("client id")
	}
	q.clientID = clientID
	return nil
}

func (q *GenerateReportQuery) setToken(raw string) error {
	if raw == "" {
		return nil
	}
	token, err := report.DecodePaginationToken(raw)
	if err != nil {
		return err
	}
	q.token = &token
	return nil
}

func (q *GenerateReportQuery) setPageSize(pageSize int) error {
	if pageSize == 0 {
		pageSize = DefaultReportPageSize
	}
	if pageSize < 1 || pageSize > MaxReportPageSize {
		return errs.NewValueIsOutOfRangeError("page size", pageSize, 1, MaxReportPageSize)
	}
	q.pageSize = pageSize
	return nil
}

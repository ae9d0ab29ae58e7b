package commands

import (
	"errors"
	"strings"

	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/guard"
)

var ErrBulkUpdateResultsCommandIsNotConstructed = errors.New(
	"BulkUpdateResultsCommand must be created via NewBulkUpdateResultsCommand constructor",
)

// ResultRow is one unparsed row of a bulk result upload.
type ResultRow struct {
	OrderNumber        string
	Sample             string
	Result             string
	TestType           *string
	VerificationSecret *string
}

// BulkUpdateResultsCommand carries the rows one lab uploads at once. IssuerID
// scopes every order number; empty means externally issued numbers.
type BulkUpdateResultsCommand struct { //nolint:recvcheck //using for validation
	labID    string
	issuerID string
	rows     []ResultRow

	guard guard.ConstructorGuard
}

// NewBulkUpdateResultsCommand requires a lab id. Rows are validated one by one
// by the handler so that a bad row never rejects the whole upload.
func NewBulkUpdateResultsCommand(labID, issuerID string, rows []ResultRow) (BulkUpdateResultsCommand, error) {
	labID = strings.TrimSpace(labID)
	if labID == "" {
		return BulkUpdateResultsCommand{}, errs.NewValueIsRequiredError("lab id")
	}

	return BulkUpdateResultsCommand{
		labID:    labID,
		issuerID: strings.TrimSpace(issuerID),
		rows:     append([]ResultRow(nil), rows...),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c BulkUpdateResultsCommand) Validate() error {
	return c.guard.Validate(ErrBulkUpdateResultsCommandIsNotConstructed)
}

func (c BulkUpdateResultsCommand) LabID() string    { return c.labID }
func (c BulkUpdateResultsCommand) IssuerID() string { return c.issuerID }

func (c BulkUpdateResultsCommand) Rows() []ResultRow {
	return append([]ResultRow(nil), c.rows...)
}

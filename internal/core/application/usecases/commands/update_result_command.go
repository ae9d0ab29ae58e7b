package commands

import (
	"errors"
	"strings"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/guard"
)

var ErrUpdateResultCommandIsNotConstructed = errors.New(
	"UpdateResultCommand must be created via NewUpdateResultCommand constructor",
)

// UpdateResultCommand records a lab result for one (number, sample).
type UpdateResultCommand struct { //nolint:recvcheck //using for validation
	number   order.Number
	sample   order.Sample
	labID    string
	result   order.Result
	testType *string
	secret   *string

	guard guard.ConstructorGuard
}

// NewUpdateResultCommand validates every field and joins the failures.
func NewUpdateResultCommand(
	number order.Number,
	sample string,
	labID string,
	result string,
	testType *string,
	secret *string,
) (UpdateResultCommand, error) {
	cmd := UpdateResultCommand{
		testType: testType,
		secret:   secret,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setNumber(number),
		cmd.setSample(sample),
		cmd.setLabID(labID),
		cmd.setResult(result),
	); err != nil {
		return UpdateResultCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateResultCommand) Validate() error {
	return c.guard.Validate(ErrUpdateResultCommandIsNotConstructed)
}

func (c UpdateResultCommand) Number() order.Number        { return c.number }
func (c UpdateResultCommand) Sample() order.Sample        { return c.sample }
func (c UpdateResultCommand) LabID() string               { return c.labID }
func (c UpdateResultCommand) Result() order.Result        { return c.result }
func (c UpdateResultCommand) TestType() *string           { return c.testType }
func (c UpdateResultCommand) VerificationSecret() *string { return c.secret }

func (c *UpdateResultCommand) setNumber(number order.Number) error {
	if number == nil {
		return errs.NewValueIsRequiredError("order number")
	}
	c.number = number
	return nil
}

func (c *UpdateResultCommand) setSample(sample string) error {
	s, err := order.NewSample(sample)
	if err != nil {
		return err
	}
	c.sample = s
	return nil
}

func (c *UpdateResultCommand) setLabID(labID string) error {
	labID = strings.TrimSpace(labID)
	if labID == "" {
		return errs.NewValueIsRequiredError("lab id")
	}
	c.labID = labID
	return nil
}

func (c *UpdateResultCommand) setResult(result string) error {
	r, err := order.ParseResult(result)
	if err != nil {
		return err
	}
	c.result = r
	return nil
}

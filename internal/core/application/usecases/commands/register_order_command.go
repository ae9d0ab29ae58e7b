package commands

import (
	"errors"
	"maps"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/guard"
)

var ErrRegisterOrderCommandIsNotConstructed = errors.New(
	"RegisterOrderCommand must be created via NewRegisterOrderCommand constructor",
)

// RegisterOrderCommand registers an order or merges a repeated registration.
// A nil number asks the handler to issue a fresh External number.
//
// Example:
//
//	number, _ := order.ParseExternal("1234567890")
//	target := "https://hooks.example/results"
//	cmd, err := NewRegisterOrderCommand(number, "SALIVA", order.Registration{NotificationTarget: &target})
type RegisterOrderCommand struct { //nolint:recvcheck //using for validation
	number  order.Number
	sample  order.Sample
	details order.Registration

	guard guard.ConstructorGuard
}

// NewRegisterOrderCommand validates the sample and notification target.
// details.IssuedAt is ignored; the handler stamps the registration time.
func NewRegisterOrderCommand(number order.Number, sample string, details order.Registration) (RegisterOrderCommand, error) {
	cmd := RegisterOrderCommand{
		number: number,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setSample(sample),
		cmd.setDetails(details),
	); err != nil {
		return RegisterOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RegisterOrderCommand) Validate() error {
	return c.guard.Validate(ErrRegisterOrderCommandIsNotConstructed)
}

// Number returns the requested order number, nil when one should be issued.
func (c RegisterOrderCommand) Number() order.Number {
	return c.number
}

func (c RegisterOrderCommand) Sample() order.Sample {
	return c.sample
}

// Details returns a copy of the registration attributes.
func (c RegisterOrderCommand) Details() order.Registration {
	d := c.details
	d.Metadata = maps.Clone(c.details.Metadata)
	return d
}

func (c *RegisterOrderCommand) setSample(sample string) error {
	s, err := order.NewSample(sample)
	if err != nil {
		return err
	}
	c.sample = s
	return nil
}

func (c *RegisterOrderCommand) setDetails(details order.Registration) error {
	if details.NotificationTarget != nil {
		target, err := order.NormalizeTarget(*details.NotificationTarget)
		if err != nil {
			return err
		}
		details.NotificationTarget = &target
	}
	details.Metadata = maps.Clone(details.Metadata)
	c.details = details
	return nil
}

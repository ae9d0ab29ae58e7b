// Package guard detects value objects that bypassed their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is given.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in commands and queries so that a zero-value
// struct literal fails validation. Only NewConstructorGuard marks it as built.
//
// Example:
//
//	type RegisterOrderCommand struct {
//	    sample order.Sample
//	    guard  guard.ConstructorGuard
//	}
//
//	func (c RegisterOrderCommand) Validate() error {
//	    return c.guard.Validate(ErrRegisterOrderCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that passes validation.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// unless the guard was created by NewConstructorGuard.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}

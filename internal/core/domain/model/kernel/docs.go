// Package kernel provides the identity primitive shared by the labtrack domain model.
//
// UUID is a value object with validation and comparison; its zero value is
// invalid so that unconstructed identifiers are caught early.
package kernel

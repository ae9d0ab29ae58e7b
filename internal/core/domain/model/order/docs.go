// Package order provides the order aggregate of the labtrack service: a
// laboratory test tracked from registration to result.
//
// The package includes:
//   - Order: the aggregate root (identity, notification targets, result lifecycle)
//   - Number: the closed External/PreIssued order-number identity
//   - Status and Result: the lifecycle states and the lab outcomes mapped onto them
//   - Targets: the bounded, insertion-ordered set of notification targets
//
// Key business rules:
//   - (Number, Sample) is the natural key of an order
//   - Orders start InProgress; the first terminal status is final
//   - An order accumulates at most three distinct notification targets
//   - Re-registration is idempotent for targets already present
package order

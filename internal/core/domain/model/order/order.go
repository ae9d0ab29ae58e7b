package order

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Metadata keys read by report generation.
const (
	MetadataEventKey  = "event"
	MetadataTicketKey = "ticket"
)

// Registration carries what an issuer supplies when registering an order.
// Optional fields are nil when the caller left them out.
type Registration struct {
	TestSiteID         *string
	NotificationTarget *string
	SampledAt          *time.Time
	Metadata           map[string]any
	IssuedAt           time.Time
}

// Order is the aggregate root tracking one laboratory test from issuance to
// result. It is identified by id and, naturally, by (number, sample).
//
// Order follows these invariants:
//   - id, number and sample never change after creation
//   - status starts at InProgress and changes at most once, to a terminal status
//   - reportedAt is set exactly when the status becomes terminal
//   - notification targets are distinct and at most MaxNotificationTargets
//   - registration merges are only allowed while InProgress
type Order struct {
	id                 kernel.UUID
	number             Number
	sample             Sample
	status             Status
	targets            Targets
	testSiteID         *string
	labID              *string
	testType           *string
	issuedAt           time.Time
	sampledAt          *time.Time
	reportedAt         *time.Time
	metadata           map[string]any
	verificationSecret *string

	// version is the persistence revision used for conditional updates.
	version int

	isConstructed bool
}

// NewOrder creates an InProgress order from a first registration.
//
// Example:
//
//	number, _ := order.ParseExternal("1234567890")
//	o, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{IssuedAt: time.Now()})
func NewOrder(id kernel.UUID, number Number, sample Sample, reg Registration) (*Order, error) {
	o := &Order{
		status:        InProgress,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setSample(sample),
	); err != nil {
		return nil, err
	}

	targets := Targets{}
	if reg.NotificationTarget != nil {
		var err error
		if targets, err = targets.With(*reg.NotificationTarget); err != nil {
			return nil, err
		}
	}

	o.targets = targets
	o.testSiteID = reg.TestSiteID
	o.issuedAt = reg.IssuedAt
	o.sampledAt = reg.SampledAt
	o.metadata = maps.Clone(reg.Metadata)
	return o, nil
}

// Snapshot is the full persisted state of an Order.
type Snapshot struct {
	ID                 kernel.UUID
	Number             Number
	Sample             Sample
	Status             Status
	Targets            []string
	TestSiteID         *string
	LabID              *string
	TestType           *string
	IssuedAt           time.Time
	SampledAt          *time.Time
	ReportedAt         *time.Time
	Metadata           map[string]any
	VerificationSecret *string
	Version            int
}

// RestoreOrder rebuilds an order from persistence, re-checking its invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{isConstructed: true}

	targets, targetsErr := NewTargets(s.Targets...)
	var reportedErr error
	if s.Status.IsTerminal() != (s.ReportedAt != nil) {
		reportedErr = errs.NewValueIsInvalidErrorWithCause(
			"reported at",
			fmt.Errorf("status %s is inconsistent with reported at", s.Status),
		)
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setNumber(s.Number),
		o.setSample(s.Sample),
		s.Status.Validate(),
		targetsErr,
		reportedErr,
	); err != nil {
		return nil, err
	}

	o.status = s.Status
	o.targets = targets
	o.testSiteID = s.TestSiteID
	o.labID = s.LabID
	o.testType = s.TestType
	o.issuedAt = s.IssuedAt
	o.sampledAt = s.SampledAt
	o.reportedAt = s.ReportedAt
	o.metadata = maps.Clone(s.Metadata)
	o.verificationSecret = s.VerificationSecret
	o.version = s.Version
	return o, nil
}

// Snapshot returns a copy of the order state for persistence adapters.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                 o.id,
		Number:             o.number,
		Sample:             o.sample,
		Status:             o.status,
		Targets:            o.targets.Values(),
		TestSiteID:         o.testSiteID,
		LabID:              o.labID,
		TestType:           o.testType,
		IssuedAt:           o.issuedAt,
		SampledAt:          o.sampledAt,
		ReportedAt:         o.reportedAt,
		Metadata:           maps.Clone(o.metadata),
		VerificationSecret: o.verificationSecret,
		Version:            o.version,
	}
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID             { return o.id }
func (o *Order) Number() Number              { return o.number }
func (o *Order) Sample() Sample              { return o.sample }
func (o *Order) Status() Status              { return o.status }
func (o *Order) TestSiteID() *string         { return o.testSiteID }
func (o *Order) LabID() *string              { return o.labID }
func (o *Order) TestType() *string           { return o.testType }
func (o *Order) IssuedAt() time.Time         { return o.issuedAt }
func (o *Order) SampledAt() *time.Time       { return o.sampledAt }
func (o *Order) ReportedAt() *time.Time      { return o.reportedAt }
func (o *Order) VerificationSecret() *string { return o.verificationSecret }
func (o *Order) Version() int                { return o.version }

// NotificationTargets returns the targets in insertion order.
func (o *Order) NotificationTargets() []string {
	return o.targets.Values()
}

// Metadata returns a shallow copy of the opaque metadata document.
func (o *Order) Metadata() map[string]any {
	return maps.Clone(o.metadata)
}

// MetadataString reads a scalar metadata value as a string. Numbers are
// formatted without exponent so numeric ticket ids survive a JSON round-trip.
func (o *Order) MetadataString(key string) (string, bool) {
	v, ok := o.metadata[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, val != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

// MergeRegistration applies a repeated registration to an InProgress order:
// the target is added to the set and test site, issuedAt, sampledAt and
// metadata are refreshed when supplied.
//
// Returns a conflict when the order is already terminal or when the union of
// targets would exceed MaxNotificationTargets. The order is unchanged on error.
func (o *Order) MergeRegistration(reg Registration) error {
	if o.status.IsTerminal() {
		return errs.NewConflictError("order", fmt.Sprintf("order %s is already %s", o.number, o.status))
	}

	targets := o.targets
	if reg.NotificationTarget != nil {
		var err error
		if targets, err = targets.With(*reg.NotificationTarget); err != nil {
			return err
		}
	}

	o.targets = targets
	if reg.TestSiteID != nil {
		o.testSiteID = reg.TestSiteID
	}
	if reg.SampledAt != nil {
		o.sampledAt = reg.SampledAt
	}
	if reg.Metadata != nil {
		o.metadata = maps.Clone(reg.Metadata)
	}
	o.issuedAt = reg.IssuedAt
	return nil
}

// ReportResult records a lab result.
//
// The status becomes result.Status(); labID and testType are stored. When the
// new status is terminal, reportedAt is set to now. A non-nil secret replaces
// the verification secret; nil keeps the existing one.
//
// Returns a conflict when the order already has a terminal status.
func (o *Order) ReportResult(result Result, labID string, testType, secret *string, now time.Time) error {
	if o.status.IsTerminal() {
		return errs.NewConflictError("order", fmt.Sprintf("result for %s was already reported", o.number))
	}

	newStatus := result.Status()
	if err := newStatus.Validate(); err != nil {
		return err
	}
	if labID == "" {
		return errs.NewValueIsRequiredError("lab id")
	}

	o.status = newStatus
	o.labID = &labID
	o.testType = testType
	if secret != nil {
		o.verificationSecret = secret
	}
	if newStatus.IsTerminal() {
		reportedAt := now
		o.reportedAt = &reportedAt
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number Number) error {
	if number == nil {
		return errs.NewValueIsRequiredError("order number")
	}
	o.number = number
	return nil
}

func (o *Order) setSample(sample Sample) error {
	if sample == "" {
		return errs.NewValueIsRequiredError("sample")
	}
	o.sample = sample
	return nil
}

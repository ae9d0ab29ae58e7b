// Package orderrepo maps order aggregates to the orders table and implements
// the order repository and report scanner on top of gorm.
package orderrepo

import (
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// OrderDTO is the row layout of an order.
//
// (issuer_id, number, sample) is unique; concurrent first registrations of the
// same key therefore collide in the database instead of creating duplicates.
// idx_orders_report serves report scans, which filter by status and test site
// and page by id.
type OrderDTO struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	IssuerID            string         `gorm:"size:64;not null;uniqueIndex:idx_orders_key,priority:1"`
	Number              string         `gorm:"size:64;not null;uniqueIndex:idx_orders_key,priority:2"`
	Sample              string         `gorm:"size:32;not null;uniqueIndex:idx_orders_key,priority:3"`
	Status              int            `gorm:"not null;index:idx_orders_report,priority:1"`
	TestSiteID          *string        `gorm:"size:128;index:idx_orders_report,priority:2"`
	NotificationTargets pq.StringArray `gorm:"type:text[]"`
	LabID               *string        `gorm:"size:128"`
	TestType            *string        `gorm:"size:64"`
	IssuedAt            time.Time      `gorm:"not null;index"`
	SampledAt           *time.Time
	ReportedAt          *time.Time
	Metadata            datatypes.JSONMap `gorm:"type:jsonb"`
	VerificationSecret  *string           `gorm:"size:256"`
	Version             int               `gorm:"not null;default:0"`
}

// TableName overrides the gorm default.
func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	var metadata datatypes.JSONMap
	if s.Metadata != nil {
		metadata = datatypes.JSONMap(s.Metadata)
	}

	return OrderDTO{
		ID:                  s.ID.Bytes(),
		IssuerID:            s.Number.IssuerID(),
		Number:              s.Number.Value(),
		Sample:              s.Sample.String(),
		Status:              int(s.Status),
		TestSiteID:          s.TestSiteID,
		NotificationTargets: pq.StringArray(s.Targets),
		LabID:               s.LabID,
		TestType:            s.TestType,
		IssuedAt:            s.IssuedAt.UTC(),
		SampledAt:           utc(s.SampledAt),
		ReportedAt:          utc(s.ReportedAt),
		Metadata:            metadata,
		VerificationSecret:  s.VerificationSecret,
		Version:             s.Version,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	number, err := order.NumberFrom(dto.IssuerID, dto.Number)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:                 id,
		Number:             number,
		Sample:             order.Sample(dto.Sample),
		Status:             order.Status(dto.Status),
		Targets:            dto.NotificationTargets,
		TestSiteID:         dto.TestSiteID,
		LabID:              dto.LabID,
		TestType:           dto.TestType,
		IssuedAt:           dto.IssuedAt,
		SampledAt:          dto.SampledAt,
		ReportedAt:         dto.ReportedAt,
		Metadata:           dto.Metadata,
		VerificationSecret: dto.VerificationSecret,
		Version:            dto.Version,
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

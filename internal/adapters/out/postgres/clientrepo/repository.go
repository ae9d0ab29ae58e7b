// Package clientrepo stores report clients and the test sites each of them
// may read results for.
package clientrepo

import (
	"context"
	"errors"
	"slices"
	"strings"

	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientDTO is the row layout of a report client.
type ClientDTO struct {
	ID        string         `gorm:"size:128;primaryKey"`
	TestSites pq.StringArray `gorm:"type:text[];not null"`
}

// TableName overrides the gorm default.
func (ClientDTO) TableName() string {
	return "report_clients"
}

// GormClientRepository implements ports.ClientAuthorizer using GORM.
type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

var _ ports.ClientAuthorizer = (*GormClientRepository)(nil)

// WhitelistedTestSites returns nil for unknown clients.
func (r *GormClientRepository) WhitelistedTestSites(ctx context.Context, clientID string) ([]string, error) {
	var dto ClientDTO
	if err := r.db.WithContext(ctx).Take(&dto, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []string(dto.TestSites), nil
}

// SaveWhitelist replaces the client's test sites, creating the client if needed.
// Blank and repeated site ids are dropped.
func (r *GormClientRepository) SaveWhitelist(ctx context.Context, clientID string, sites []string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return errs.NewValueIsRequiredError("client id")
	}

	cleaned := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site != "" && !slices.Contains(cleaned, site) {
			cleaned = append(cleaned, site)
		}
	}

	dto := ClientDTO{ID: clientID, TestSites: cleaned}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"test_sites"}),
		}).
		Create(&dto).Error
}

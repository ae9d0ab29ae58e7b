package orderrepo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"labtrack/internal/adapters/out/postgres/orderrepo"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite runs the repository against a real
// PostgreSQL container.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, orderrepo.WithScanPageSize(3))
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ThenFindByKey_RoundTripsEveryField() {
	ctx := context.Background()
	sampledAt := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	site := "site-a"
	number, _ := order.ParseExternal("1234567890")
	target := "https://hooks.example/a"

	original, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{
		TestSiteID:         &site,
		NotificationTarget: &target,
		SampledAt:          &sampledAt,
		Metadata:           map[string]any{"event": "ev-1", "ticket": "T-1"},
		IssuedAt:           time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.repository.Add(ctx, original))

	found, err := suite.repository.FindByKey(ctx, number, "SALIVA")
	suite.Require().NoError(err)
	suite.True(original.ID().IsEqual(found.ID()))
	suite.Equal(order.InProgress, found.Status())
	suite.Equal([]string{target}, found.NotificationTargets())
	suite.Equal("site-a", *found.TestSiteID())
	suite.True(sampledAt.Equal(*found.SampledAt()))
	event, ok := found.MetadataString(order.MetadataEventKey)
	suite.True(ok)
	suite.Equal("ev-1", event)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestFindByKey_SeparatesIssuersAndSamples() {
	ctx := context.Background()
	preIssued, _ := order.NewPreIssued("acme", "1234567890")
	external, _ := order.ParseExternal("1234567890")
	suite.add(preIssued, "SALIVA", nil)

	_, err := suite.repository.FindByKey(ctx, external, "SALIVA")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	_, err = suite.repository.FindByKey(ctx, preIssued, "BLOOD")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	found, err := suite.repository.FindByKey(ctx, preIssued, "SALIVA")
	suite.Require().NoError(err)
	suite.Equal(order.Number(preIssued), found.Number())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateKey_IsConflict() {
	ctx := context.Background()
	number, _ := order.ParseExternal("1234567890")
	suite.add(number, "SALIVA", nil)

	duplicate, err := order.NewOrder(kernel.NewUUID(), number, "SALIVA", order.Registration{})
	suite.Require().NoError(err)

	err = suite.repository.Add(ctx, duplicate)
	suite.Require().ErrorIs(err, errs.ErrConflict)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_StaleVersion_IsConflict() {
	ctx := context.Background()
	number, _ := order.ParseExternal("1234567890")
	suite.add(number, "SALIVA", nil)

	first, err := suite.repository.FindByKey(ctx, number, "SALIVA")
	suite.Require().NoError(err)
	second, err := suite.repository.FindByKey(ctx, number, "SALIVA")
	suite.Require().NoError(err)

	suite.Require().NoError(first.ReportResult(order.ResultNegative, "lab-1", nil, nil, time.Now()))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	suite.Require().NoError(second.ReportResult(order.ResultPositive, "lab-2", nil, nil, time.Now()))
	err = suite.repository.Update(ctx, second)
	suite.Require().ErrorIs(err, errs.ErrConflict)

	stored, err := suite.repository.FindByKey(ctx, number, "SALIVA")
	suite.Require().NoError(err)
	suite.Equal(order.Negative, stored.Status())
	suite.Equal(1, stored.Version())
	suite.NotNil(stored.ReportedAt())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestExistsByNumber() {
	ctx := context.Background()
	number, _ := order.ParseExternal("1234567890")
	other, _ := order.ParseExternal("0987654321")
	suite.add(number, "BLOOD", nil)

	exists, err := suite.repository.ExistsByNumber(ctx, number)
	suite.Require().NoError(err)
	suite.True(exists)

	exists, err = suite.repository.ExistsByNumber(ctx, other)
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestScan_PagesThroughMatchingOrdersInIdOrder() {
	ctx := context.Background()
	reported := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	for i := range 7 {
		number, _ := order.ParseExternal(fmt.Sprintf("%010d", i))
		site := "site-a"
		if i == 6 {
			site = "site-b"
		}
		o := suite.add(number, "SALIVA", &site)
		if i != 5 {
			suite.Require().NoError(o.ReportResult(order.ResultNegative, "lab-1", nil, nil, reported))
			suite.Require().NoError(suite.repository.Update(ctx, o))
		}
	}

	filter := ports.ScanFilter{Status: order.Negative, TestSiteIDs: []string{"site-a"}}
	var seen []string
	var startKey *kernel.UUID
	calls := 0
	for {
		page, next, err := suite.repository.Scan(ctx, filter, startKey)
		suite.Require().NoError(err)
		calls++
		for _, o := range page {
			suite.Equal(order.Negative, o.Status())
			suite.Equal("site-a", *o.TestSiteID())
			seen = append(seen, o.ID().String())
		}
		if next == nil {
			break
		}
		startKey = next
	}

	suite.Len(seen, 5)
	suite.Equal(2, calls)
	suite.IsIncreasing(seen)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestScan_AppliesTimestampFilters() {
	ctx := context.Background()
	site := "site-a"
	early := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	for i, reportedAt := range []time.Time{early, late} {
		number, _ := order.ParseExternal(fmt.Sprintf("%010d", i))
		o := suite.add(number, "SALIVA", &site)
		suite.Require().NoError(o.ReportResult(order.ResultNegative, "lab-1", nil, nil, reportedAt))
		suite.Require().NoError(suite.repository.Update(ctx, o))
	}

	threshold := early.Add(time.Hour)
	page, next, err := suite.repository.Scan(ctx, ports.ScanFilter{
		Status:        order.Negative,
		TestSiteIDs:   []string{site},
		ReportedAfter: &threshold,
	}, nil)

	suite.Require().NoError(err)
	suite.Nil(next)
	suite.Require().Len(page, 1)
	suite.True(late.Equal(*page[0].ReportedAt()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestScan_EmptyWhitelistMatchesNothing() {
	number, _ := order.ParseExternal("1234567890")
	suite.add(number, "SALIVA", nil)

	page, next, err := suite.repository.Scan(context.Background(), ports.ScanFilter{Status: order.InProgress}, nil)

	suite.Require().NoError(err)
	suite.Empty(page)
	suite.Nil(next)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestCountInProgressIssuedBefore() {
	ctx := context.Background()
	for i := range 3 {
		number, _ := order.ParseExternal(fmt.Sprintf("%010d", i))
		suite.add(number, "SALIVA", nil)
	}

	count, err := suite.repository.CountInProgressIssuedBefore(ctx, time.Now().Add(time.Hour))
	suite.Require().NoError(err)
	suite.Equal(int64(3), count)

	count, err = suite.repository.CountInProgressIssuedBefore(ctx, time.Now().Add(-time.Hour))
	suite.Require().NoError(err)
	suite.Zero(count)
}

func (suite *OrderRepositoryIntegrationTestSuite) add(number order.Number, sample order.Sample, site *string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), number, sample, order.Registration{
		TestSiteID: site,
		IssuedAt:   time.Now().UTC(),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), o))

	stored, err := suite.repository.FindByKey(context.Background(), number, sample)
	suite.Require().NoError(err)
	return stored
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

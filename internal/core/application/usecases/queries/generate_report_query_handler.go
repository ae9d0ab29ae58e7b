package queries

import (
	"context"
	"errors"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/model/report"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultMaxScanCalls caps physical store scans per logical report page.
const DefaultMaxScanCalls = 20

var ErrTokenParametersMismatch = errors.New("pagination token was issued for different report parameters")

// GenerateReportQueryHandler builds negative-result report pages.
//
// The store filters by status, whitelisted test sites and the optional
// timestamps; the event lives in order metadata and is matched here. One
// logical page may therefore need several physical scans. The loop stops when
// the store is exhausted, the page is full, or maxScanCalls is reached; in the
// last case the partial page carries a token so the client can continue.
type GenerateReportQueryHandler struct {
	authorizer   ports.ClientAuthorizer
	scanner      ports.OrderScanner
	maxScanCalls int
	metrics      *metrics.Collectors
	logger       *zap.Logger
}

// NewGenerateReportQueryHandler creates the handler. A non-positive
// maxScanCalls selects DefaultMaxScanCalls.
func NewGenerateReportQueryHandler(
	authorizer ports.ClientAuthorizer,
	scanner ports.OrderScanner,
	maxScanCalls int,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) GenerateReportQueryHandler {
	if maxScanCalls <= 0 {
		maxScanCalls = DefaultMaxScanCalls
	}
	return GenerateReportQueryHandler{
		authorizer:   authorizer,
		scanner:      scanner,
		maxScanCalls: maxScanCalls,
		metrics:      collectors,
		logger:       logger.With(zap.String("component", "generate_report")),
	}
}

// Handle returns one report page.
//
// Errors:
//   - errs.ErrForbidden when the client has no whitelisted test site
//   - errs.ErrValueIsInvalid when the token belongs to other parameters
func (h GenerateReportQueryHandler) Handle(ctx context.Context, query GenerateReportQuery) (report.Report, error) {
	if err := query.Validate(); err != nil {
		return report.Report{}, err
	}

	sites, err := h.authorizer.WhitelistedTestSites(ctx, query.ClientID())
	if err != nil {
		return report.Report{}, err
	}
	if len(sites) == 0 {
		return report.Report{}, errs.NewForbiddenError("report client " + query.ClientID())
	}

	params := query.Parameters()
	var startKey *kernel.UUID
	if token := query.PaginationToken(); token != nil {
		if !token.Parameters.Equal(params) {
			return report.Report{}, errs.NewValueIsInvalidErrorWithCause("pagination token", ErrTokenParametersMismatch)
		}
		key := token.ExclusiveStartKey
		startKey = &key
	}

	filter := ports.ScanFilter{
		Status:        order.Negative,
		TestSiteIDs:   sites,
		ReportedAfter: params.ReportedAfter(),
		SampledAfter:  params.SampledAfter(),
	}

	pageSize := query.PageSize()
	entries := make([]report.Entry, 0, pageSize)
	ids := make([]kernel.UUID, 0, pageSize)
	calls := 0

	for {
		orders, next, scanErr := h.scanner.Scan(ctx, filter, startKey)
		calls++
		if scanErr != nil {
			return report.Report{}, scanErr
		}

		for _, o := range orders {
			if event, ok := o.MetadataString(order.MetadataEventKey); !ok || event != params.Event() {
				continue
			}
			entry, entryErr := report.EntryFromOrder(o)
			if entryErr != nil {
				h.logger.Warn("Dropping order from report",
					zap.String("order_id", o.ID().String()),
					zap.Error(entryErr),
				)
				continue
			}
			entries = append(entries, entry)
			ids = append(ids, o.ID())
		}

		startKey = next
		if next == nil || len(entries) >= pageSize {
			break
		}
		if calls >= h.maxScanCalls {
			h.logger.Info("Scan budget exhausted, returning partial page",
				zap.String("client_id", query.ClientID()),
				zap.Int("entries", len(entries)),
				zap.Int("scan_calls", calls),
			)
			break
		}
	}

	h.metrics.ReportScanCalls.Observe(float64(calls))

	result := report.Report{Entries: entries}
	switch {
	case len(entries) > pageSize:
		result.Entries = entries[:pageSize]
		result.NextPage = &report.PaginationToken{Parameters: params, ExclusiveStartKey: ids[pageSize-1]}
	case startKey != nil:
		result.NextPage = &report.PaginationToken{Parameters: params, ExclusiveStartKey: *startKey}
	}
	return result, nil
}

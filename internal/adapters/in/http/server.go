package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/model/report"
	"labtrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PaginationTokenHeader carries the next-page token on spreadsheet reports.
const PaginationTokenHeader = "X-Pagination-Token"

type OrderRegistrar interface {
	Handle(ctx context.Context, cmd commands.RegisterOrderCommand) (*order.Order, error)
}

type BulkResultUpdater interface {
	Handle(ctx context.Context, cmd commands.BulkUpdateResultsCommand) ([]commands.RowFailure, error)
}

type OrderResultFinder interface {
	Handle(ctx context.Context, query queries.GetOrderResultQuery) (queries.GetOrderResultQueryResponse, error)
}

type ReportGenerator interface {
	Handle(ctx context.Context, query queries.GenerateReportQuery) (report.Report, error)
}

// Server handles the HTTP API. It translates requests into commands and
// queries and their outcomes into JSON.
type Server struct {
	// Command handlers
	registerOrderHandler OrderRegistrar
	updateResultHandler  commands.SingleResultUpdater
	bulkUpdateHandler    BulkResultUpdater

	// Query handlers
	orderResultHandler OrderResultFinder
	reportHandler      ReportGenerator

	logger *zap.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	registerOrderHandler OrderRegistrar,
	updateResultHandler commands.SingleResultUpdater,
	bulkUpdateHandler BulkResultUpdater,
	orderResultHandler OrderResultFinder,
	reportHandler ReportGenerator,
	logger *zap.Logger,
) *Server {
	return &Server{
		registerOrderHandler: registerOrderHandler,
		updateResultHandler:  updateResultHandler,
		bulkUpdateHandler:    bulkUpdateHandler,
		orderResultHandler:   orderResultHandler,
		reportHandler:        reportHandler,
		logger:               logger.With(zap.String("component", "http_server")),
	}
}

// RegisterOrder handles POST /api/v1/orders. The caller is an issuer; a
// supplied order number is scoped to it unless issuerId names a self-issued
// number, and an absent one is issued.
func (s *Server) RegisterOrder(ctx echo.Context) error {
	var req RegisterOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	var number order.Number
	switch {
	case req.OrderNumber != nil:
		n, err := registrationNumber(principal(ctx), req.IssuerID, *req.OrderNumber)
		if err != nil {
			return s.respondError(ctx, err, "Failed to register order")
		}
		number = n
	case req.IssuerID != nil:
		return badRequest(ctx, "issuerId requires orderNumber")
	}

	cmd, err := commands.NewRegisterOrderCommand(number, req.Sample, order.Registration{
		TestSiteID:         req.TestSiteID,
		NotificationTarget: req.NotificationTarget,
		SampledAt:          req.SampledAt,
		Metadata:           req.Metadata,
	})
	if err != nil {
		return s.respondError(ctx, err, "Failed to register order")
	}

	o, err := s.registerOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err, "Failed to register order")
	}

	return ctx.JSON(http.StatusOK, toOrder(o))
}

func registrationNumber(caller string, issuerID *string, number string) (order.Number, error) {
	if issuerID == nil {
		return order.NumberFrom(caller, number)
	}
	if *issuerID != "" && *issuerID != order.ImplicitIssuerID && *issuerID != caller {
		return nil, errs.NewForbiddenError("issuer " + *issuerID)
	}
	return order.NumberFrom(*issuerID, number)
}

// UpdateResult handles PUT /api/v1/orders/result. The caller is a lab.
func (s *Server) UpdateResult(ctx echo.Context) error {
	var req UpdateResultRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	number, err := order.NumberFrom(req.IssuerID, req.OrderNumber)
	if err != nil {
		return s.respondError(ctx, err, "Failed to update result")
	}

	cmd, err := commands.NewUpdateResultCommand(
		number, req.Sample, principal(ctx), req.Result, req.TestType, req.VerificationSecret,
	)
	if err != nil {
		return s.respondError(ctx, err, "Failed to update result")
	}

	o, err := s.updateResultHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err, "Failed to update result")
	}

	return ctx.JSON(http.StatusOK, toOrder(o))
}

// BulkUpdateResults handles POST /api/v1/orders/results and answers with the
// rows that failed. A partially failed batch is still 200.
func (s *Server) BulkUpdateResults(ctx echo.Context) error {
	var req BulkUpdateResultsRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewBulkUpdateResultsCommand(principal(ctx), req.IssuerID, toResultRows(req.Rows))
	if err != nil {
		return s.respondError(ctx, err, "Failed to update results")
	}

	failures, err := s.bulkUpdateHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err, "Failed to update results")
	}

	return ctx.JSON(http.StatusOK, BulkUpdateResultsResponse{FailedRows: toFailedRows(failures)})
}

// GetOrderResult handles GET /api/v1/orders/:number/result. It needs no API
// key; the verification secret stands in for one.
func (s *Server) GetOrderResult(ctx echo.Context) error {
	number, err := order.NumberFrom(ctx.QueryParam("issuerId"), ctx.Param("number"))
	if err != nil {
		return s.respondError(ctx, err, "Failed to look up result")
	}

	query, err := queries.NewGetOrderResultQuery(number, ctx.QueryParam("sample"), ctx.QueryParam("secret"))
	if err != nil {
		return s.respondError(ctx, err, "Failed to look up result")
	}

	res, err := s.orderResultHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to look up result")
	}

	return ctx.JSON(http.StatusOK, toOrderResult(res))
}

// GetNegativeReport handles GET /api/v1/reports/negative. format=xlsx returns
// the page as a spreadsheet with the next token in PaginationTokenHeader.
func (s *Server) GetNegativeReport(ctx echo.Context) error {
	reportedAfter, err := optionalTime(ctx.QueryParam("reportedAfter"))
	if err != nil {
		return badRequest(ctx, "reportedAfter must be an RFC 3339 timestamp")
	}
	sampledAfter, err := optionalTime(ctx.QueryParam("sampledAfter"))
	if err != nil {
		return badRequest(ctx, "sampledAfter must be an RFC 3339 timestamp")
	}

	pageSize := 0
	if raw := ctx.QueryParam("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			return badRequest(ctx, "pageSize must be an integer")
		}
	}

	format := strings.ToLower(ctx.QueryParam("format"))
	if format != "" && format != "json" && format != "xlsx" {
		return badRequest(ctx, "format must be json or xlsx")
	}

	params, err := report.NewParameters(ctx.QueryParam("event"), reportedAfter, sampledAfter)
	if err != nil {
		return s.respondError(ctx, err, "Failed to generate report")
	}

	query, err := queries.NewGenerateReportQuery(principal(ctx), params, ctx.QueryParam("paginationToken"), pageSize)
	if err != nil {
		return s.respondError(ctx, err, "Failed to generate report")
	}

	rep, err := s.reportHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err, "Failed to generate report")
	}

	var token *string
	if rep.NextPage != nil {
		encoded, encErr := rep.NextPage.Encode()
		if encErr != nil {
			return s.respondError(ctx, encErr, "Failed to generate report")
		}
		token = &encoded
	}

	if format == "xlsx" {
		body, xlsxErr := writeReportXLSX(rep.Entries)
		if xlsxErr != nil {
			return s.respondError(ctx, xlsxErr, "Failed to generate report")
		}
		if token != nil {
			ctx.Response().Header().Set(PaginationTokenHeader, *token)
		}
		return ctx.Blob(http.StatusOK, xlsxContentType, body)
	}

	return ctx.JSON(http.StatusOK, Report{
		Entries:         toReportEntries(rep.Entries),
		PaginationToken: token,
	})
}

func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent filter
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

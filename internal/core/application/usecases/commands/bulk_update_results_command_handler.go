package commands

import (
	"context"
	"errors"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"go.uber.org/zap"
)

// RowErrorCode explains why one bulk row was not applied.
type RowErrorCode string

const (
	RowInvalidOrderNumber   RowErrorCode = "INVALID_ORDER_NUMBER"
	RowOrderNotFound        RowErrorCode = "ORDER_NOT_FOUND"
	RowOrderAlreadyReported RowErrorCode = "ORDER_ALREADY_REPORTED"
	RowInvalidRequest       RowErrorCode = "INVALID_REQUEST"
	RowUpdateFailed         RowErrorCode = "UPDATE_FAILED"
)

// RowFailure reports a rejected row by its position in the upload.
type RowFailure struct {
	Index       int
	OrderNumber string
	Sample      string
	Code        RowErrorCode
}

// SingleResultUpdater applies one result update.
type SingleResultUpdater interface {
	Handle(ctx context.Context, cmd UpdateResultCommand) (*order.Order, error)
}

// BulkUpdateResultsCommandHandler applies every row independently through the
// single-update path and collects the rows that failed. Earlier failures never
// stop later rows.
type BulkUpdateResultsCommandHandler struct {
	updater SingleResultUpdater
	logger  *zap.Logger
}

func NewBulkUpdateResultsCommandHandler(updater SingleResultUpdater, logger *zap.Logger) BulkUpdateResultsCommandHandler {
	return BulkUpdateResultsCommandHandler{
		updater: updater,
		logger:  logger.With(zap.String("component", "bulk_update_results")),
	}
}

// Handle returns only the failed rows, in upload order. An empty slice means
// every row was applied.
func (h *BulkUpdateResultsCommandHandler) Handle(ctx context.Context, cmd BulkUpdateResultsCommand) ([]RowFailure, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	failures := make([]RowFailure, 0)
	for i, row := range cmd.Rows() {
		code, ok := h.applyRow(ctx, cmd, row)
		if ok {
			continue
		}
		failures = append(failures, RowFailure{
			Index:       i,
			OrderNumber: row.OrderNumber,
			Sample:      row.Sample,
			Code:        code,
		})
	}

	h.logger.Info("Bulk results applied",
		zap.String("lab_id", cmd.LabID()),
		zap.Int("rows", len(cmd.Rows())),
		zap.Int("failed", len(failures)),
	)
	return failures, nil
}

func (h *BulkUpdateResultsCommandHandler) applyRow(ctx context.Context, cmd BulkUpdateResultsCommand, row ResultRow) (RowErrorCode, bool) {
	number, err := order.NumberFrom(cmd.IssuerID(), row.OrderNumber)
	if err != nil {
		return RowInvalidOrderNumber, false
	}

	single, err := NewUpdateResultCommand(number, row.Sample, cmd.LabID(), row.Result, row.TestType, row.VerificationSecret)
	if err != nil {
		return RowInvalidRequest, false
	}

	if _, err = h.updater.Handle(ctx, single); err != nil {
		return rowErrorCode(err), false
	}
	return "", true
}

func rowErrorCode(err error) RowErrorCode {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return RowOrderNotFound
	case errors.Is(err, errs.ErrConflict):
		return RowOrderAlreadyReported
	case errors.Is(err, errs.ErrValueIsInvalid), errors.Is(err, errs.ErrValueIsRequired):
		return RowInvalidRequest
	default:
		return RowUpdateFailed
	}
}

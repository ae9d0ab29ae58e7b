package http

import (
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/model/report"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RegisterOrderRequest.IssuerID selects the number's namespace: absent means
// the caller's own numbers, empty or "labtrack" means a self-issued number.
type RegisterOrderRequest struct {
	OrderNumber        *string        `json:"orderNumber"`
	IssuerID           *string        `json:"issuerId"`
	Sample             string         `json:"sample"`
	TestSiteID         *string        `json:"testSiteId"`
	NotificationTarget *string        `json:"notificationTarget"`
	SampledAt          *time.Time     `json:"sampledAt"`
	Metadata           map[string]any `json:"metadata"`
}

type UpdateResultRequest struct {
	OrderNumber        string  `json:"orderNumber"`
	IssuerID           string  `json:"issuerId"`
	Sample             string  `json:"sample"`
	Result             string  `json:"result"`
	TestType           *string `json:"testType"`
	VerificationSecret *string `json:"verificationSecret"`
}

type BulkResultRow struct {
	OrderNumber        string  `json:"orderNumber"`
	Sample             string  `json:"sample"`
	Result             string  `json:"result"`
	TestType           *string `json:"testType"`
	VerificationSecret *string `json:"verificationSecret"`
}

type BulkUpdateResultsRequest struct {
	IssuerID string          `json:"issuerId"`
	Rows     []BulkResultRow `json:"rows"`
}

type FailedRow struct {
	Index       int    `json:"index"`
	OrderNumber string `json:"orderNumber"`
	Sample      string `json:"sample"`
	Error       string `json:"error"`
}

type BulkUpdateResultsResponse struct {
	FailedRows []FailedRow `json:"failedRows"`
}

type Order struct {
	ID                  string         `json:"id"`
	OrderNumber         string         `json:"orderNumber"`
	IssuerID            string         `json:"issuerId"`
	Sample              string         `json:"sample"`
	Status              string         `json:"status"`
	NotificationTargets []string       `json:"notificationTargets"`
	TestSiteID          *string        `json:"testSiteId,omitempty"`
	LabID               *string        `json:"labId,omitempty"`
	TestType            *string        `json:"testType,omitempty"`
	IssuedAt            time.Time      `json:"issuedAt"`
	SampledAt           *time.Time     `json:"sampledAt,omitempty"`
	ReportedAt          *time.Time     `json:"reportedAt,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

type OrderResult struct {
	OrderNumber string     `json:"orderNumber"`
	Sample      string     `json:"sample"`
	Status      string     `json:"status"`
	ReportedAt  *time.Time `json:"reportedAt,omitempty"`
}

type ReportEntry struct {
	EventID     string     `json:"eventId"`
	TicketID    string     `json:"ticketId"`
	OrderNumber string     `json:"orderNumber"`
	Sample      string     `json:"sample"`
	TestSiteID  string     `json:"testSiteId"`
	LabID       string     `json:"labId,omitempty"`
	TestType    string     `json:"testType,omitempty"`
	SampledAt   *time.Time `json:"sampledAt,omitempty"`
	ReportedAt  time.Time  `json:"reportedAt"`
}

type Report struct {
	Entries         []ReportEntry `json:"entries"`
	PaginationToken *string       `json:"paginationToken,omitempty"`
}

func toOrder(o *order.Order) Order {
	return Order{
		ID:                  o.ID().String(),
		OrderNumber:         o.Number().Value(),
		IssuerID:            o.Number().IssuerID(),
		Sample:              o.Sample().String(),
		Status:              o.Status().String(),
		NotificationTargets: o.NotificationTargets(),
		TestSiteID:          o.TestSiteID(),
		LabID:               o.LabID(),
		TestType:            o.TestType(),
		IssuedAt:            o.IssuedAt(),
		SampledAt:           o.SampledAt(),
		ReportedAt:          o.ReportedAt(),
		Metadata:            o.Metadata(),
	}
}

func toOrderResult(r queries.GetOrderResultQueryResponse) OrderResult {
	return OrderResult{
		OrderNumber: r.OrderNumber,
		Sample:      r.Sample,
		Status:      r.Status.String(),
		ReportedAt:  r.ReportedAt,
	}
}

func toResultRows(rows []BulkResultRow) []commands.ResultRow {
	out := make([]commands.ResultRow, len(rows))
	for i, r := range rows {
		out[i] = commands.ResultRow{
			OrderNumber:        r.OrderNumber,
			Sample:             r.Sample,
			Result:             r.Result,
			TestType:           r.TestType,
			VerificationSecret: r.VerificationSecret,
		}
	}
	return out
}

func toFailedRows(failures []commands.RowFailure) []FailedRow {
	out := make([]FailedRow, len(failures))
	for i, f := range failures {
		out[i] = FailedRow{
			Index:       f.Index,
			OrderNumber: f.OrderNumber,
			Sample:      f.Sample,
			Error:       string(f.Code),
		}
	}
	return out
}

func toReportEntries(entries []report.Entry) []ReportEntry {
	out := make([]ReportEntry, len(entries))
	for i, e := range entries {
		out[i] = ReportEntry{
			EventID:     e.EventID,
			TicketID:    e.TicketID,
			OrderNumber: e.OrderNumber,
			Sample:      e.Sample,
			TestSiteID:  e.TestSiteID,
			LabID:       e.LabID,
			TestType:    e.TestType,
			SampledAt:   e.SampledAt,
			ReportedAt:  e.ReportedAt,
		}
	}
	return out
}

package report

import (
	"time"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"
)

// Entry is one negative result as shown to report clients.
type Entry struct {
	EventID     string
	TicketID    string
	OrderNumber string
	Sample      string
	TestSiteID  string
	LabID       string
	TestType    string
	SampledAt   *time.Time
	ReportedAt  time.Time
}

// Report is one page of entries. NextPage is nil on the last page.
type Report struct {
	Entries  []Entry
	NextPage *PaginationToken
}

// EntryFromOrder projects an order into a report entry. It fails when the
// event or ticket identifiers are missing from the metadata or the order has
// no reportedAt.
func EntryFromOrder(o *order.Order) (Entry, error) {
	event, ok := o.MetadataString(order.MetadataEventKey)
	if !ok {
		return Entry{}, errs.NewValueIsRequiredError("metadata event")
	}
	ticket, ok := o.MetadataString(order.MetadataTicketKey)
	if !ok {
		return Entry{}, errs.NewValueIsRequiredError("metadata ticket")
	}
	reportedAt := o.ReportedAt()
	if reportedAt == nil {
		return Entry{}, errs.NewValueIsRequiredError("reported at")
	}

	return Entry{
		EventID:     event,
		TicketID:    ticket,
		OrderNumber: o.Number().Value(),
		Sample:      o.Sample().String(),
		TestSiteID:  deref(o.TestSiteID()),
		LabID:       deref(o.LabID()),
		TestType:    deref(o.TestType()),
		SampledAt:   o.SampledAt(),
		ReportedAt:  *reportedAt,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

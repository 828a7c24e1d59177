package transfer

import (
	"context"
	"time"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
)

// Leads is the part of the lead service the spreadsheet transfer uses.
type Leads interface {
	ExportLeads(ctx context.Context, actor user.Actor, signedOnly bool) ([]lead.Lead, error)
	GetOrCreateByPhone(ctx context.Context, actor user.Actor, phone string, build func() (lead.LeadInput, error)) (*lead.Lead, bool, error)
	RowInput(row lead.BatchRow) (lead.LeadInput, error)
	Location() *time.Location
}

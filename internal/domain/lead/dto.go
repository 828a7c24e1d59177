package lead

import "time"

// LeadInput is the editable part of a lead. A nil SalesRepID on create means
// "default for the creator"; on update it means the pool. Zero also means the pool.
type LeadInput struct {
	Name            string     `json:"name" validate:"required,max=100"`
	Phone           string     `json:"phone" validate:"required,max=20"`
	Status          Status     `json:"status" validate:"omitempty,oneof=wait_contact wait_followup wait_visit visited signed no_intent unreachable"`
	SalesRepID      *int64     `json:"sales_rep_id"`
	Source          string     `json:"source" validate:"max=100"`
	Province        string     `json:"province" validate:"max=50"`
	CityAuto        string     `json:"city_auto" validate:"max=50"`
	RegionManual    string     `json:"region_manual" validate:"max=100"`
	ContactCount    int        `json:"contact_count" validate:"min=0"`
	NextContactTime *time.Time `json:"next_contact_time"`
	IsKeyCustomer   bool       `json:"is_key_customer"`
	Notes           string     `json:"notes"`
	ExtraData       Extra      `json:"extra_data"`
	CreatedAt       *time.Time `json:"created_at"`
}

type LeadResponse struct {
	Lead
	StatusLabel  string `json:"status_label"`
	SalesRepName string `json:"sales_rep_name"`
}

func NewLeadResponse(l *Lead) LeadResponse {
	return LeadResponse{
		Lead:         *l,
		StatusLabel:  l.Status.Label(),
		SalesRepName: l.OwnerName(),
	}
}

type LeadListResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type IDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

type AssignRequest struct {
	SalesRepID *int64 `json:"sales_rep_id"`
}

// BulkEditRequest changes status and/or owner of many leads.
// SalesRepID 0 releases to the pool, except from the pool view where it is ignored.
type BulkEditRequest struct {
	IDs        []int64 `json:"ids" validate:"required,min=1"`
	Status     Status  `json:"status" validate:"omitempty,oneof=wait_contact wait_followup wait_visit visited signed no_intent unreachable"`
	SalesRepID *int64  `json:"sales_rep_id"`
	View       string  `json:"view" validate:"omitempty,oneof=mine pool"`
}

type BulkResult struct {
	Affected int64 `json:"affected"`
}

// BatchRow is one pasted lead. Times and status are free text.
type BatchRow struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Status          string `json:"status"`
	Source          string `json:"source"`
	Province        string `json:"province"`
	CityAuto        string `json:"city_auto"`
	RegionManual    string `json:"region_manual"`
	ContactCount    int    `json:"contact_count"`
	NextContactTime string `json:"next_contact_time"`
	CreatedAt       string `json:"created_at"`
	Notes           string `json:"notes"`
	Note            string `json:"note"`
}

type BatchAddRequest struct {
	Rows []BatchRow `json:"rows" validate:"required,min=1"`
}

// MaxReportedErrors caps row errors returned by batch operations.
const MaxReportedErrors = 5

type BatchResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func (r *BatchResult) AddError(msg string) {
	r.Failed++
	if len(r.Errors) < MaxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

type DashboardTask struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Status          Status `json:"status"`
	StatusLabel     string `json:"status_label"`
	NextContactTime string `json:"next_contact_time"`
	SalesRepName    string `json:"sales_rep_name"`
}

type DashboardDay struct {
	Date    string          `json:"date"`
	IsToday bool            `json:"is_today"`
	Tasks   []DashboardTask `json:"tasks"`
}

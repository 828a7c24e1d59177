package reminder

import (
	"fmt"
	"time"

	"salescrm/internal/domain/lead"
)

// Mark records that a requester has already been shown a reminder.
type Mark struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Key       string    `gorm:"column:mark_key;primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (Mark) TableName() string { return "reminder_marks" }

// MarkKey identifies one scheduled follow-up of one lead.
func MarkKey(leadID int64, next time.Time) string {
	return fmt.Sprintf("reminded_%d_%s", leadID, next.UTC().Format("200601021504"))
}

// Message is a follow-up reminder addressed to the lead owner.
type Message struct {
	OwnerID     int64     `json:"owner_id"`
	Owner       string    `json:"owner"`
	LeadID      int64     `json:"lead_id"`
	LeadName    string    `json:"lead_name"`
	Phone       string    `json:"phone"`
	StatusLabel string    `json:"status"`
	At          time.Time `json:"at"`
}

// NewMessage builds the reminder for l with the follow-up time in loc.
// l must have a follow-up time and its owner preloaded.
func NewMessage(l *lead.Lead, loc *time.Location) Message {
	m := Message{
		LeadID:      l.ID,
		LeadName:    l.Name,
		Phone:       l.Phone,
		StatusLabel: l.Status.Label(),
		Owner:       l.OwnerName(),
	}
	if m.Owner == "" {
		m.Owner = "无"
	}
	if l.SalesRepID != nil {
		m.OwnerID = *l.SalesRepID
	}
	if l.NextContactTime != nil {
		m.At = l.NextContactTime.In(loc)
	}
	return m
}

// Text renders "@owner yyyy-mm-dd hh:mm name status".
func (m Message) Text() string {
	return fmt.Sprintf("@%s %s %s %s", m.Owner, m.At.Format(lead.DisplayLayout), m.LeadName, m.StatusLabel)
}

// Pending is one entry of the pending reminders poll.
type Pending struct {
	CustomerID      int64  `json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	NextContactTime string `json:"next_contact_time"`
	Status          string `json:"status"`
	Phone           string `json:"phone"`
	Notes           string `json:"notes"`
}

type PendingResponse struct {
	Reminders []Pending `json:"reminders"`
}

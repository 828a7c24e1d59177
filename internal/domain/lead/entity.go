package lead

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salescrm/internal/domain/user"
)

// Status is the stage of a lead in the sales funnel.
type Status string

const (
	StatusWaitContact  Status = "wait_contact"
	StatusWaitFollowup Status = "wait_followup"
	StatusWaitVisit    Status = "wait_visit"
	StatusVisited      Status = "visited"
	StatusSigned       Status = "signed"
	StatusNoIntent     Status = "no_intent"
	StatusUnreachable  Status = "unreachable"
)

var statusOrder = []Status{
	StatusWaitContact,
	StatusWaitFollowup,
	StatusWaitVisit,
	StatusVisited,
	StatusSigned,
	StatusNoIntent,
	StatusUnreachable,
}

var statusLabels = map[Status]string{
	StatusWaitContact:  "待沟通",
	StatusWaitFollowup: "待跟进",
	StatusWaitVisit:    "待到访",
	StatusVisited:      "已到访",
	StatusSigned:       "已签约",
	StatusNoIntent:     "无意向",
	StatusUnreachable:  "未接通",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name, or the raw code for unknown statuses.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus accepts either a status code or its display label.
func ParseStatus(v string) (Status, bool) {
	v = strings.TrimSpace(v)
	if s := Status(v); s.Valid() {
		return s, true
	}
	for s, l := range statusLabels {
		if l == v {
			return s, true
		}
	}
	return "", false
}

type StatusOption struct {
	Value Status `json:"value"`
	Label string `json:"label"`
}

func StatusOptions() []StatusOption {
	out := make([]StatusOption, 0, len(statusOrder))
	for _, s := range statusOrder {
		out = append(out, StatusOption{Value: s, Label: s.Label()})
	}
	return out
}

// NoteKey is the reserved extension key holding free-form remarks.
const NoteKey = "note"

// ExtraValue is either a single string or a list of strings.
type ExtraValue struct {
	text   string
	list   []string
	isList bool
}

func Text(s string) ExtraValue { return ExtraValue{text: s} }

func List(values ...string) ExtraValue {
	return ExtraValue{list: append([]string{}, values...), isList: true}
}

func (v ExtraValue) IsList() bool { return v.isList }

func (v ExtraValue) Values() []string {
	if v.isList {
		return v.list
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

func (v ExtraValue) String() string {
	if v.isList {
		return strings.Join(v.list, ", ")
	}
	return v.text
}

func (v ExtraValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.text)
}

func (v *ExtraValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Text("")
	case string:
		*v = Text(t)
	case float64, bool:
		*v = Text(fmt.Sprint(t))
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		*v = List(items...)
	default:
		return fmt.Errorf("unsupported extension value %s", string(data))
	}
	return nil
}

// Extra holds values for admin-defined fields, keyed by field name.
type Extra map[string]ExtraValue

func (e Extra) Note() string {
	if e == nil {
		return ""
	}
	return e[NoteKey].String()
}

func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Lead is a prospective customer. A nil SalesRepID means the lead sits in the pool.
type Lead struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Phone           string     `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Status          Status     `gorm:"size:20;not null;index" json:"status"`
	SalesRepID      *int64     `gorm:"index" json:"sales_rep_id"`
	SalesRep        *user.User `gorm:"foreignKey:SalesRepID;constraint:OnDelete:SET NULL" json:"-"`
	Source          string     `gorm:"size:100" json:"source"`
	Province        string     `gorm:"size:50" json:"province"`
	CityAuto        string     `gorm:"size:50" json:"city_auto"`
	RegionManual    string     `gorm:"size:100" json:"region_manual"`
	ContactCount    int        `gorm:"not null" json:"contact_count"`
	NextContactTime *time.Time `gorm:"index" json:"next_contact_time"`
	LastContactAt   time.Time  `gorm:"index" json:"last_contact_at"`
	IsKeyCustomer   bool       `gorm:"not null" json:"is_key_customer"`
	Notes           string     `gorm:"type:text" json:"notes"`
	Extra           Extra      `gorm:"column:extra_data;serializer:json" json:"extra_data"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Lead) TableName() string { return "customers" }

func (l *Lead) InPool() bool { return l.SalesRepID == nil }

func (l *Lead) OwnedBy(userID int64) bool {
	return l.SalesRepID != nil && *l.SalesRepID == userID
}

// OwnerName is the owner's username when the owner was preloaded.
func (l *Lead) OwnerName() string {
	if l.SalesRep == nil {
		return ""
	}
	return l.SalesRep.Username
}

// nextContactCount applies the follow-up counting rule to an update:
// the counter moves only when a new, different follow-up time is set.
func nextContactCount(prevCount int, prevNext, newNext *time.Time) int {
	if newNext == nil {
		return prevCount
	}
	if prevNext != nil && prevNext.Equal(*newNext) {
		return prevCount
	}
	return prevCount + 1
}

// normalizeTime stores instants in UTC at second precision so values
// compare equal after a round trip through either database.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := normalizeTime(*t)
	return &n
}

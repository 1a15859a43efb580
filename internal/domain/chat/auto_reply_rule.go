package chat

import "time"

type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchStartsWith MatchKind = "starts_with"
	MatchContains   MatchKind = "contains"
)

func (k MatchKind) Valid() bool {
	switch k {
	case MatchExact, MatchStartsWith, MatchContains:
		return true
	}
	return false
}

// AutoReplyRule is administrator-managed and read-only at request time.
type AutoReplyRule struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Trigger   string    `gorm:"column:trigger_pattern;type:text;not null" json:"trigger"`
	MatchKind MatchKind `gorm:"column:match_kind;type:varchar(20);not null" json:"match_kind"`
	Response  string    `gorm:"column:response;type:text;not null" json:"response"`
	Active    bool      `gorm:"column:active;not null;index" json:"active"`
	Priority  int       `gorm:"column:priority;not null;default:0" json:"priority"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AutoReplyRule) TableName() string { return "auto_reply_rule" }

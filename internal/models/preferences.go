package models

import "time"

// FeedSort values accepted for UserPreferences.DefaultFeedSort.
const (
	FeedSortNew      = "new"
	FeedSortPopular  = "popular"
	FeedSortTrending = "trending"
)

// UserPreferences holds the settings that are actually persisted.
// Anything not listed here is decorative (see DecorativeSettings).
type UserPreferences struct {
	UserID             uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	EmailNotifications bool      `gorm:"not null;default:true" json:"email_notifications"`
	MarketingEmails    bool      `gorm:"not null;default:false" json:"marketing_emails"`
	DefaultFeedSort    string    `gorm:"type:varchar(16);not null;default:'new'" json:"default_feed_sort"`
	NSFWFilter         bool      `gorm:"not null;default:true" json:"nsfw_filter"`
	Language           string    `gorm:"type:varchar(8);not null;default:'en'" json:"language"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserPreferences) TableName() string {
	return "user_preferences"
}

// DefaultPreferences returns the preferences a user has before saving any.
func DefaultPreferences(userID uint) UserPreferences {
	return UserPreferences{
		UserID:             userID,
		EmailNotifications: true,
		DefaultFeedSort:    FeedSortNew,
		NSFWFilter:         true,
		Language:           "en",
	}
}

// SettingKind classifies a settings field.
type SettingKind string

const (
	SettingPersisted  SettingKind = "persisted"
	SettingDecorative SettingKind = "decorative"
)

// SettingField describes one field on the settings pages.
type SettingField struct {
	Key   string      `json:"key"`
	Page  string      `json:"page"`
	Kind  SettingKind `json:"kind"`
	Label string      `json:"label"`
}

// SettingsSchema lists every settings field and whether it is stored.
// Decorative fields are displayed but never written anywhere.
var SettingsSchema = []SettingField{
	{Key: "email_notifications", Page: "notifications", Kind: SettingPersisted, Label: "Email notifications"},
	{Key: "marketing_emails", Page: "notifications", Kind: SettingPersisted, Label: "Product updates"},
	{Key: "default_feed_sort", Page: "preferences", Kind: SettingPersisted, Label: "Default feed sort"},
	{Key: "nsfw_filter", Page: "preferences", Kind: SettingPersisted, Label: "Hide sensitive content"},
	{Key: "language", Page: "preferences", Kind: SettingPersisted, Label: "Language"},
	{Key: "payout_method", Page: "payouts", Kind: SettingDecorative, Label: "Payout method"},
	{Key: "payout_threshold", Page: "payouts", Kind: SettingDecorative, Label: "Payout threshold"},
	{Key: "two_factor", Page: "security", Kind: SettingDecorative, Label: "Two-factor authentication"},
	{Key: "login_alerts", Page: "security", Kind: SettingDecorative, Label: "Login alerts"},
}

// DecorativeSettings returns the keys of fields that are never persisted.
func DecorativeSettings() []string {
	var out []string
	for _, f := range SettingsSchema {
		if f.Kind == SettingDecorative {
			out = append(out, f.Key)
		}
	}
	return out
}

// SupportTicketStatus is the lifecycle state of a support ticket.
type SupportTicketStatus string

const (
	TicketOpen   SupportTicketStatus = "open"
	TicketClosed SupportTicketStatus = "closed"
)

// SupportTicket is a contact form submission.
type SupportTicket struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	UserID    *uint               `gorm:"index" json:"user_id,omitempty"`
	Email     string              `gorm:"not null" json:"email"`
	Subject   string              `gorm:"size:200;not null" json:"subject"`
	Message   string              `gorm:"type:text;not null" json:"message"`
	Category  string              `gorm:"type:varchar(32)" json:"category"`
	Status    SupportTicketStatus `gorm:"type:varchar(16);not null;default:'open'" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SupportTicket) TableName() string {
	return "support_tickets"
}

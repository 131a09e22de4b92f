package model

import "time"

// Notification 表示推送给招聘官的站内通知。
type Notification struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	RecruiterID string    `gorm:"index" json:"recruiterId"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

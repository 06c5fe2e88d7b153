package model

import "time"

const (
	NotificationOrderPlaced    = "order_placed"
	NotificationOrderAccepted  = "order_accepted"
	NotificationOTPIssued      = "otp_issued"
	NotificationOrderDelivered = "order_delivered"
	NotificationOrderCancelled = "order_cancelled"
)

type Notification struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	Username  string     `gorm:"column:username;size:128;index;not null"`
	Type      string     `gorm:"column:type;size:64;not null"`
	Title     string     `gorm:"column:title;size:255"`
	Body      string     `gorm:"column:body;type:text"`
	OrderID   *string    `gorm:"column:order_id;size:36;index"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

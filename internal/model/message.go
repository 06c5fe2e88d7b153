package model

import "time"

// Message is a chat line attached to an order. Rows are append-only.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string    `gorm:"column:order_id;size:36;index;not null" json:"orderId"`
	Sender    string    `gorm:"column:sender;size:128;not null" json:"sender"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"timestamp"`
}

func (Message) TableName() string {
	return "messages"
}

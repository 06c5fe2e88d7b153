package repository

import (
	"context"

	"github.com/shinyyama/unimart-backend/internal/model"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, username string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var list []model.Notification
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("username = ?", username)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if err := q.Order("created_at DESC, id DESC").Limit(clampLimit(limit, 20, 50)).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, username string) error {
	now := r.db.NowFunc()
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("username = ? AND read_at IS NULL", username).
		Update("read_at", now).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, username string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("username = ? AND read_at IS NULL", username).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

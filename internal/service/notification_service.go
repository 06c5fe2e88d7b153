package service

import (
	"context"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/sirupsen/logrus"
)

type NotificationService interface {
	Notify(ctx context.Context, username, typ, title, body string, orderID *string) error
	List(ctx context.Context, username string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, username string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  logrus.FieldLogger
}

func NewNotificationService(repo repository.NotificationRepository, log logrus.FieldLogger) NotificationService {
	return &notificationService{repo: repo, log: log}
}

func (s *notificationService) Notify(ctx context.Context, username, typ, title, body string, orderID *string) error {
	if username == "" || typ == "" {
		return nil
	}
	n := &model.Notification{
		Username: username,
		Type:     typ,
		Title:    title,
		Body:     body,
		OrderID:  orderID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"username": username, "type": typ}).Warn("store notification failed")
		return err
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, username string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if username == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, username, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, username)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, username string) error {
	if username == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, username)
}

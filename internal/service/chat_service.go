package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shinyyama/unimart-backend/internal/chatgate"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/repository"
)

const MaxMessageLength = 2000

type ChatService interface {
	Send(ctx context.Context, orderID string, actor model.Identity, text string) (*model.Message, error)
	List(ctx context.Context, orderID string, actor model.Identity) ([]model.Message, error)
}

type chatService struct {
	store repository.Store
	now   func() time.Time
}

func NewChatService(store repository.Store) ChatService {
	return &chatService{store: store, now: time.Now}
}

func (s *chatService) Send(ctx context.Context, orderID string, actor model.Identity, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}

	var msg *model.Message
	err := s.store.Transaction(ctx, func(tx repository.Tx) error {
		// Locking the order serialises sends against the transition that closes the chat.
		o, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !o.IsParticipant(actor.Username) {
			return ErrUnauthorized
		}
		if !chatgate.CanSend(o) {
			return ErrChatReadOnly
		}
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m := &model.Message{
			ID:        id.String(),
			OrderID:   o.ID,
			Sender:    actor.Username,
			Text:      text,
			CreatedAt: s.now(),
		}
		if err := tx.Messages().Create(ctx, m); err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) List(ctx context.Context, orderID string, actor model.Identity) ([]model.Message, error) {
	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	if !o.IsParticipant(actor.Username) {
		return nil, ErrUnauthorized
	}
	return s.store.Messages().ListByOrder(ctx, orderID)
}

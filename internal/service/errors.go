package service

import (
	"errors"
	"fmt"

	"github.com/shinyyama/unimart-backend/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidActor       = errors.New("invalid actor")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnverified         = errors.New("unverified")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrOtpMismatch        = errors.New("otp mismatch")
	ErrOtpExpired         = errors.New("otp expired")
	ErrOtpLocked          = errors.New("otp locked")
	ErrValidation         = errors.New("validation failed")

	ErrChatReadOnly = fmt.Errorf("%w: chat is read-only", ErrInvalidTransition)
)

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

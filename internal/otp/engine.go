package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidLength = errors.New("otp: length must be 4 or 6")

// Engine issues numeric one-time codes and checks candidates against the stored form.
// It holds no per-order state.
type Engine struct {
	length int
	hashed bool
	max    *big.Int
}

func NewEngine(length int, hashed bool) (*Engine, error) {
	if length != 4 && length != 6 {
		return nil, ErrInvalidLength
	}
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	return &Engine{length: length, hashed: hashed, max: max}, nil
}

func (e *Engine) Length() int { return e.length }

// Generate returns a zero-padded code drawn uniformly from crypto/rand.
func (e *Engine) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, e.max)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}
	return fmt.Sprintf("%0*d", e.length, n.Int64()), nil
}

// Seal converts a code into the form persisted on the order.
func (e *Engine) Seal(code string) (string, error) {
	if !e.hashed {
		return code, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("otp: hash: %w", err)
	}
	return string(h), nil
}

// Verify compares a candidate against a sealed code without leaking timing.
func (e *Engine) Verify(sealed, candidate string) bool {
	if sealed == "" || candidate == "" {
		return false
	}
	if e.hashed {
		return bcrypt.CompareHashAndPassword([]byte(sealed), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(sealed), []byte(candidate)) == 1
}

// Package session owns the signed-in user's session: restoring it from the durable
// store at start-up, signing in against the API, and signing out. The API client only
// ever holds a copy of the token, as its default Authorization header, and the Manager
// keeps that copy in step with the session it holds.
package session

import (
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

// StorageKey is the store key holding the encoded session.
const StorageKey = "@waiter/session"

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Session is the signed-in user with their bearer credential.
// A Session is only valid when every field is set.
type Session struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Token string `json:"token" validate:"required"`
}

// Decode parses and validates an encoded session.
func Decode(raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ErrInvalidRecord.Err(err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, ErrInvalidRecord.Err(err)
	}
	return &s, nil
}

// Encode serializes s for the store.
func (s *Session) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

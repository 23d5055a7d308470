package storage

import (
	"github.com/pizzeria-pos/waiter/internal/common/apperrors"
)

var (
	ErrStorage      = apperrors.New("storage error").SetKind(apperrors.KindStorage)
	ErrReadFailed   = ErrStorage.New("unable to read storage file")
	ErrParseFailed  = ErrStorage.New("unable to parse storage file")
	ErrWriteFailed  = ErrStorage.New("unable to write storage file")
	ErrEmptyKey     = ErrStorage.New("storage key cannot be empty")
	ErrInjectedFail = ErrStorage.New("injected storage failure")
)

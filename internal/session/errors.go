package session

import (
	"net/http"

	"github.com/pizzeria-pos/waiter/internal/common/apperrors"
)

var (
	ErrSession         = apperrors.New("session error")
	ErrInvalidRecord   = ErrSession.New("invalid session record").SetKind(apperrors.KindBadResponse)
	ErrAlreadyRestored = ErrSession.New("session already restored").SetKind(apperrors.KindState)

	ErrSignInFailed       = ErrSession.New("sign in failed")
	ErrNetwork            = ErrSignInFailed.New("unable to reach the server").SetKind(apperrors.KindNetwork)
	ErrInvalidCredentials = ErrSignInFailed.New("invalid email or password").SetKind(apperrors.KindInvalidCredentials).SetStatusCode(http.StatusUnauthorized)
	ErrBadResponse        = ErrSignInFailed.New("unexpected sign in response").SetKind(apperrors.KindBadResponse)
	ErrPersistFailed      = ErrSignInFailed.New("unable to save session").SetKind(apperrors.KindStorage)
	ErrAbandoned          = ErrSignInFailed.New("sign in abandoned by caller")

	ErrSignOutFailed = ErrSession.New("sign out failed").SetKind(apperrors.KindStorage)
)

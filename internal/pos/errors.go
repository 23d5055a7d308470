package pos

import (
	"github.com/pizzeria-pos/waiter/internal/common/apperrors"
)

var (
	ErrPOS = apperrors.New("order error")

	ErrInvalidInput  = ErrPOS.New("invalid input").SetKind(apperrors.KindInvalidInput)
	ErrInvalidTable  = ErrInvalidInput.New("enter a valid table number")
	ErrInvalidAmount = ErrInvalidInput.New("amount must be a whole number of at least 1")

	ErrState            = ErrPOS.New("invalid order state").SetKind(apperrors.KindState)
	ErrNoOpenOrder      = ErrState.New("no open order; open a table first")
	ErrOrderAlreadyOpen = ErrState.New("an order is already open; finish or cancel it first")
	ErrOrderHasItems    = ErrState.New("order has items and cannot be cancelled")
	ErrOrderEmpty       = ErrState.New("order has no items")
	ErrItemNotFound     = ErrState.New("item not found in the open order")
	ErrUnknownCategory  = ErrState.New("category not found")
	ErrUnknownProduct   = ErrState.New("product not found")
	ErrNoCategories     = ErrState.New("no categories available")
	ErrNoProducts       = ErrState.New("no products available in this category")

	ErrRequestFailed = ErrPOS.New("request failed").SetKind(apperrors.KindNetwork)
	ErrBadResponse   = ErrPOS.New("unexpected response from server").SetKind(apperrors.KindBadResponse)
	ErrDraftStorage  = ErrPOS.New("unable to save the open order").SetKind(apperrors.KindStorage)
)

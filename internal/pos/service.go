// Package pos implements the order-taking flow of a waiter: open a table, browse the
// menu, add and remove items, then finish or cancel the order.
package pos

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pizzeria-pos/waiter/internal/common/apperrors"
	"github.com/pizzeria-pos/waiter/internal/common/httpclient"
	"github.com/pizzeria-pos/waiter/internal/notice"
	"github.com/pizzeria-pos/waiter/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Operation names used in notices and logs.
const (
	OpOpenTable   = "openTable"
	OpCategories  = "categories"
	OpProducts    = "products"
	OpAddItem     = "addItem"
	OpRemoveItem  = "removeItem"
	OpCancelOrder = "cancelOrder"
	OpFinishOrder = "finishOrder"
)

// API endpoints.
const (
	PathOpenOrder   = "order"
	PathDeleteOrder = "delete-order"
	PathCategories  = "categoryInfo"
	PathProducts    = "category/product"
	PathAddItem     = "order/add-item"
	PathDeleteItem  = "order/delete-Item"
	PathFinishOrder = "order/finished"
)

// DefaultAmount is used when no amount is given.
const DefaultAmount = "1"

// Service runs the ordering flow against the API and keeps the open order in the store.
// The API client must already carry the bearer header.
type Service struct {
	store    storage.Store
	api      httpclient.Client
	notices  notice.Notifier
	logger   zerolog.Logger
	validate *validator.Validate

	mu sync.Mutex
}

// NewService creates a Service. A nil notifier discards notices.
func NewService(store storage.Store, api httpclient.Client, notifier notice.Notifier) *Service {
	if notifier == nil {
		notifier = notice.Discard
	}
	return &Service{
		store:    store,
		api:      api,
		notices:  notifier,
		logger:   log.With().Str("component", "pos").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// OpenTable opens an order for table number and makes it the current draft.
func (s *Service) OpenTable(ctx context.Context, number string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.parsePositive(number)
	if err != nil {
		return nil, s.fail(OpOpenTable, ErrInvalidTable.Err(err))
	}

	current, err := s.loadDraft(ctx)
	if err != nil {
		return nil, s.fail(OpOpenTable, err)
	}
	if current != nil {
		return nil, s.fail(OpOpenTable, ErrOrderAlreadyOpen.MsgErr("table "+strconv.Itoa(current.Table)+" already has an open order"))
	}

	body, err := sjson.SetBytes([]byte(`{}`), "table", table)
	if err != nil {
		return nil, s.fail(OpOpenTable, ErrRequestFailed.Err(err))
	}
	resp, err := s.api.Post(ctx, PathOpenOrder, body)
	if err != nil {
		return nil, s.fail(OpOpenTable, ErrRequestFailed.Err(err))
	}
	id := gjson.GetBytes(resp, "id").String()
	if id == "" {
		return nil, s.fail(OpOpenTable, ErrBadResponse.Msg("order id missing"))
	}

	d := &Draft{OrderID: id, Table: table, Items: []Item{}}
	if err := s.saveDraft(ctx, d); err != nil {
		s.undo(ctx, OpOpenTable, PathDeleteOrder, map[string]string{"order_id": id})
		return nil, s.fail(OpOpenTable, err)
	}
	s.logger.Info().Str("op", OpOpenTable).Str("order_id", id).Int("table", table).Msg("table opened")
	return d.clone(), nil
}

// Categories lists the menu categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	resp, err := s.api.Get(ctx, PathCategories, nil)
	if err != nil {
		return nil, s.fail(OpCategories, ErrRequestFailed.Err(err))
	}
	entries, err := parseEntries(resp)
	if err != nil {
		return nil, s.fail(OpCategories, err)
	}
	out := make([]Category, 0, len(entries))
	for _, e := range entries {
		out = append(out, Category{ID: e.Get("id").String(), Name: e.Get("name").String()})
	}
	return out, nil
}

// Products lists the products of a category.
func (s *Service) Products(ctx context.Context, categoryID string) ([]Product, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, s.fail(OpProducts, ErrUnknownCategory)
	}
	resp, err := s.api.Get(ctx, PathProducts, map[string]string{"category_id": categoryID})
	if err != nil {
		return nil, s.fail(OpProducts, ErrRequestFailed.Err(err))
	}
	entries, err := parseEntries(resp)
	if err != nil {
		return nil, s.fail(OpProducts, err)
	}
	out := make([]Product, 0, len(entries))
	for _, e := range entries {
		out = append(out, Product{ID: e.Get("id").String(), Name: e.Get("name").String()})
	}
	return out, nil
}

// SelectCategory returns the category whose id or name (case-insensitive) matches
// ref, or the first category when ref is empty.
func SelectCategory(categories []Category, ref string) (Category, error) {
	if len(categories) == 0 {
		return Category{}, ErrNoCategories
	}
	if ref == "" {
		return categories[0], nil
	}
	for _, c := range categories {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return Category{}, ErrUnknownCategory.Msg("category " + ref + " not found")
}

// SelectProduct is SelectCategory for products.
func SelectProduct(products []Product, ref string) (Product, error) {
	if len(products) == 0 {
		return Product{}, ErrNoProducts
	}
	if ref == "" {
		return products[0], nil
	}
	for _, p := range products {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return Product{}, ErrUnknownProduct.Msg("product " + ref + " not found")
}

// AddItem adds amount units of product to the open order. An empty amount means one.
func (s *Service) AddItem(ctx context.Context, product Product, amount string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(amount) == "" {
		amount = DefaultAmount
	}
	n, err := s.parsePositive(amount)
	if err != nil {
		return nil, s.fail(OpAddItem, ErrInvalidAmount.Err(err))
	}
	if product.ID == "" {
		return nil, s.fail(OpAddItem, ErrUnknownProduct)
	}

	d, err := s.requireDraft(ctx)
	if err != nil {
		return nil, s.fail(OpAddItem, err)
	}

	body := []byte(`{}`)
	for _, kv := range []struct {
		path  string
		value any
	}{{"order_id", d.OrderID}, {"product_id", product.ID}, {"amount", n}} {
		if body, err = sjson.SetBytes(body, kv.path, kv.value); err != nil {
			return nil, s.fail(OpAddItem, ErrRequestFailed.Err(err))
		}
	}

	resp, err := s.api.Post(ctx, PathAddItem, body)
	if err != nil {
		return nil, s.fail(OpAddItem, ErrRequestFailed.Err(err))
	}
	id := gjson.GetBytes(resp, "id").String()
	if id == "" {
		return nil, s.fail(OpAddItem, ErrBadResponse.Msg("item id missing"))
	}

	d.Items = append(d.Items, Item{ID: id, Name: product.Name, ProductID: product.ID, Amount: n})
	if err := s.saveDraft(ctx, d); err != nil {
		s.undo(ctx, OpAddItem, PathDeleteItem, map[string]string{"item_id": id})
		return nil, s.fail(OpAddItem, err)
	}
	s.logger.Info().Str("op", OpAddItem).Str("order_id", d.OrderID).Str("item_id", id).Int("amount", n).Msg("item added")
	return d.clone(), nil
}

// RemoveItem deletes an item from the open order.
func (s *Service) RemoveItem(ctx context.Context, itemID string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.requireDraft(ctx)
	if err != nil {
		return nil, s.fail(OpRemoveItem, err)
	}
	idx := d.indexOf(itemID)
	if idx < 0 {
		return nil, s.fail(OpRemoveItem, ErrItemNotFound.Msg("item "+itemID+" not found"))
	}

	if err := s.api.Delete(ctx, PathDeleteItem, map[string]string{"item_id": itemID}); err != nil {
		return nil, s.fail(OpRemoveItem, ErrRequestFailed.Err(err))
	}

	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	if err := s.saveDraft(ctx, d); err != nil {
		return nil, s.fail(OpRemoveItem, err)
	}
	s.logger.Info().Str("op", OpRemoveItem).Str("order_id", d.OrderID).Str("item_id", itemID).Msg("item removed")
	return d.clone(), nil
}

// CancelOrder deletes the open order. Only an order without items can be cancelled.
func (s *Service) CancelOrder(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.requireDraft(ctx)
	if err != nil {
		return s.fail(OpCancelOrder, err)
	}
	if d.HasItems() {
		return s.fail(OpCancelOrder, ErrOrderHasItems)
	}
	if err := s.api.Delete(ctx, PathDeleteOrder, map[string]string{"order_id": d.OrderID}); err != nil {
		return s.fail(OpCancelOrder, ErrRequestFailed.Err(err))
	}
	if err := s.clearDraft(ctx); err != nil {
		return s.fail(OpCancelOrder, err)
	}
	s.logger.Info().Str("op", OpCancelOrder).Str("order_id", d.OrderID).Msg("order cancelled")
	return nil
}

// FinishOrder sends the open order to the kitchen and returns it.
func (s *Service) FinishOrder(ctx context.Context) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.requireDraft(ctx)
	if err != nil {
		return nil, s.fail(OpFinishOrder, err)
	}
	if !d.HasItems() {
		return nil, s.fail(OpFinishOrder, ErrOrderEmpty)
	}

	body, err := sjson.SetBytes([]byte(`{}`), "order_id", d.OrderID)
	if err != nil {
		return nil, s.fail(OpFinishOrder, ErrRequestFailed.Err(err))
	}
	if _, err := s.api.Patch(ctx, PathFinishOrder, body); err != nil {
		return nil, s.fail(OpFinishOrder, ErrRequestFailed.Err(err))
	}
	if err := s.clearDraft(ctx); err != nil {
		return nil, s.fail(OpFinishOrder, err)
	}
	s.logger.Info().Str("op", OpFinishOrder).Str("order_id", d.OrderID).Msg("order finished")
	s.notices.Notify(notice.Info(OpFinishOrder, "order for table "+strconv.Itoa(d.Table)+" sent"))
	return d, nil
}

// Current returns the open order.
func (s *Service) Current(ctx context.Context) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireDraft(ctx)
}

func (s *Service) parsePositive(v string) (int, error) {
	v = strings.TrimSpace(v)
	if err := s.validate.Var(v, "required,numeric"); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, ErrInvalidInput.Msg("must be at least 1")
	}
	return n, nil
}

func (s *Service) requireDraft(ctx context.Context) (*Draft, error) {
	d, err := s.loadDraft(ctx)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNoOpenOrder
	}
	return d, nil
}

// loadDraft returns nil when no usable draft is stored.
func (s *Service) loadDraft(ctx context.Context) (*Draft, error) {
	raw, err := s.store.Get(ctx, DraftKey)
	if err != nil {
		return nil, ErrDraftStorage.Err(err)
	}
	if raw == "" {
		return nil, nil
	}
	d, err := decodeDraft(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring stored order")
		return nil, nil
	}
	return d, nil
}

func (s *Service) saveDraft(ctx context.Context, d *Draft) error {
	raw, err := d.encode()
	if err != nil {
		return ErrDraftStorage.Err(err)
	}
	if err := s.store.Set(ctx, DraftKey, raw); err != nil {
		return ErrDraftStorage.Err(err)
	}
	return nil
}

// undo deletes what the server created when the draft could not record it, so the
// server is not left holding an order or item the client no longer knows about.
func (s *Service) undo(ctx context.Context, op, path string, query map[string]string) {
	if err := s.api.Delete(context.WithoutCancel(ctx), path, query); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Str("path", path).Msg("unable to undo server change")
		return
	}
	s.logger.Debug().Str("op", op).Str("path", path).Msg("server change undone")
}

func (s *Service) clearDraft(ctx context.Context) error {
	if err := s.store.Remove(ctx, DraftKey); err != nil {
		return ErrDraftStorage.Err(err)
	}
	return nil
}

// fail logs err and publishes a notice: the error text for input and state problems,
// the generic message for everything else.
func (s *Service) fail(op string, err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput, apperrors.KindState:
		s.logger.Debug().Err(err).Str("op", op).Msg("rejected")
		s.notices.Notify(notice.Failure(op, err.Error()))
	default:
		s.logger.Warn().Err(err).Str("op", op).Msg("failed")
		s.notices.Notify(notice.Failure(op, notice.MsgSomethingWentWrong))
	}
	return err
}

// Package fakeapi is an in-process stand-in for the ordering API, used by tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
)

type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Token    string
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type Order struct {
	ID       string
	Table    int
	Items    map[string]Item
	Finished bool
}

// Server is a fake API backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      map[string]User
	categories []Category
	products   map[string][]Product
	orders     map[string]*Order
	seq        int
	failNext   int
	requests   []string
	authHeader []string
	requestIDs []string
}

// New starts a fake API seeded with one user, two categories and their products.
// The server is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users: map[string]User{
			"a@x.com": {ID: "1", Name: "Ana", Email: "a@x.com", Password: "secret", Token: "tok123"},
		},
		categories: []Category{
			{ID: "c-pizza", Name: "Pizzas"},
			{ID: "c-drink", Name: "Drinks"},
		},
		products: map[string][]Product{
			"c-pizza": {{ID: "p-marg", Name: "Margherita"}, {ID: "p-cala", Name: "Calabresa"}},
			"c-drink": {{ID: "p-cola", Name: "Cola"}},
		},
		orders: map[string]*Order{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestLogger)
	r.Use(s.record)
	r.Post("/session", s.createSession)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/order", s.openOrder)
		r.Delete("/delete-order", s.deleteOrder)
		r.Get("/categoryInfo", s.listCategories)
		r.Get("/category/product", s.listProducts)
		r.Post("/order/add-item", s.addItem)
		r.Delete("/order/delete-Item", s.deleteItem)
		r.Patch("/order/finished", s.finishOrder)
	})
	return r
}

// FailNext makes the next n requests answer 500.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Requests returns "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// AuthHeaders returns the Authorization header of every request received.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeader...)
}

// RequestIDs returns the request id of every request received.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// Order returns a copy of an order.
func (s *Server) Order(id string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, false
	}
	cp := *o
	cp.Items = map[string]Item{}
	for k, v := range o.Items {
		cp.Items[k] = v
	}
	return cp, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.authHeader = append(s.authHeader, r.Header.Get("Authorization"))
		s.requestIDs = append(s.requestIDs, logtrace.RequestIdFromContext(r.Context()))
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()
		if fail {
			errApplication().send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := false
		for _, u := range s.users {
			if token != "" && u.Token == token {
				ok = true
				break
			}
		}
		s.mu.Unlock()
		if !ok {
			errUnauthorized().send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest("invalid body").send(w)
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || u.Password != req.Password {
		errUnauthorized("user/password incorrect").send(w)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{
		"id": u.ID, "name": u.Name, "email": u.Email, "token": u.Token,
	})
}

func (s *Server) openOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table int `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Table <= 0 {
		errInvalidRequest("invalid table").send(w)
		return
	}
	s.mu.Lock()
	o := &Order{ID: s.nextID("o"), Table: req.Table, Items: map[string]Item{}}
	s.orders[o.ID] = o
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, map[string]any{"id": o.ID, "table": o.Table, "status": false, "draft": true})
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("order_id")
	s.mu.Lock()
	o, ok := s.orders[id]
	if ok {
		delete(s.orders, id)
	}
	s.mu.Unlock()
	if !ok {
		errInvalidRequest("order not found").send(w)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"id": o.ID, "table": o.Table})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sendJSON(w, http.StatusOK, s.categories)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("category_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	products := s.products[id]
	if products == nil {
		products = []Product{}
	}
	sendJSON(w, http.StatusOK, products)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID   string `json:"order_id"`
		ProductID string `json:"product_id"`
		Amount    int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		errInvalidRequest("invalid item").send(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[req.OrderID]
	if !ok {
		errInvalidRequest("order not found").send(w)
		return
	}
	item := Item{ID: s.nextID("i"), OrderID: o.ID, ProductID: req.ProductID, Amount: req.Amount}
	o.Items[item.ID] = item
	sendJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("item_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if item, ok := o.Items[id]; ok {
			delete(o.Items, id)
			sendJSON(w, http.StatusOK, item)
			return
		}
	}
	errInvalidRequest("item not found").send(w)
}

func (s *Server) finishOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest("invalid body").send(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[req.OrderID]
	if !ok {
		errInvalidRequest("order not found").send(w)
		return
	}
	o.Finished = true
	sendJSON(w, http.StatusOK, map[string]any{"id": o.ID, "table": o.Table, "status": true})
}

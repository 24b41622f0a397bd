package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/courier-orders/internal/geo"
	"github.com/example/courier-orders/internal/geocode"
	"github.com/example/courier-orders/internal/lifecycle"
	"github.com/example/courier-orders/internal/models"
	"github.com/example/courier-orders/internal/pricing"
	"github.com/example/courier-orders/internal/store"
	"github.com/example/courier-orders/internal/validate"
)

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	res := s.Resolver.SuggestNow(r.Context(), query)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var pos models.Coordinates
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cand, err := s.Resolver.ResolvePosition(r.Context(), pos)
	switch {
	case errors.Is(err, geocode.ErrNotInServiceArea):
		writeError(w, http.StatusUnprocessableEntity, "location is outside the service area")
	case errors.Is(err, geocode.ErrNoAddressFound):
		writeError(w, http.StatusNotFound, "no address found for this position")
	case err != nil:
		writeError(w, http.StatusBadGateway, "address resolution failed")
	default:
		writeJSON(w, http.StatusOK, cand)
	}
}

type quoteRequest struct {
	ServiceRef string             `json:"service_ref"`
	Pickup     models.Coordinates `json:"pickup"`
	Dropoff    models.Coordinates `json:"dropoff"`
}

type quoteResponse struct {
	Service         models.Service `json:"service"`
	DistanceMeters  float64        `json:"distance_meters"`
	DistanceDisplay string         `json:"distance_display"`
	Price           string         `json:"price"`
	MinPrice        string         `json:"min_price"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		writeError(w, http.StatusBadRequest, "pickup and dropoff coordinates are required")
		return
	}
	svc, err := s.Store.Service(r.Context(), req.ServiceRef)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	dist := geo.DistanceMeters(req.Pickup, req.Dropoff)
	price := pricing.ComputePrice(dist, svc)
	writeJSON(w, http.StatusOK, quoteResponse{
		Service:         svc,
		DistanceMeters:  dist,
		DistanceDisplay: pricing.FormatDistance(dist),
		Price:           price.StringFixed(2),
		MinPrice:        svc.MinPrice.StringFixed(2),
	})
}

type validateRequest struct {
	ServiceRef  string           `json:"service_ref"`
	Form        models.OrderForm `json:"form"`
	HasDistance bool             `json:"has_distance"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, err := s.Store.Service(r.Context(), req.ServiceRef)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.snapshotWalletBalance(r, &req.Form)
	errs := s.Validator.Validate(req.Form, svc.MinPrice, req.HasDistance)
	writeJSON(w, http.StatusOK, map[string]any{"valid": errs.Valid(), "errors": errs})
}

// snapshotWalletBalance fills the form's wallet balance from the read-only
// balance provider when the caller pays by wallet and identified a customer.
func (s *Server) snapshotWalletBalance(r *http.Request, form *models.OrderForm) {
	if form.PaymentMethod != models.PayWallet || form.WalletBalance != nil || s.Wallet == nil {
		return
	}
	customerID := r.Header.Get("X-Wallet-Customer")
	if customerID == "" {
		return
	}
	bal, err := s.Wallet.Balance(r.Context(), customerID)
	if err != nil {
		s.logger.Warn("wallet balance lookup failed", "customer", customerID, "error", err)
		return
	}
	form.WalletBalance = &bal
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Load(r.Context()); err != nil {
		// report the failure; never silently present an emptied list
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": s.Store.Orders()})
}

type createOrderRequest struct {
	ServiceRef  string           `json:"service_ref"`
	Form        models.OrderForm `json:"form"`
	HasDistance bool             `json:"has_distance"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, err := s.Store.Service(r.Context(), req.ServiceRef)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.snapshotWalletBalance(r, &req.Form)
	if errs := s.Validator.Validate(req.Form, svc.MinPrice, req.HasDistance); !errs.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"valid": false, "errors": errs})
		return
	}
	if !validate.ValidAddressText(req.Form.PickupLocation, s.CountryName) ||
		!validate.ValidAddressText(req.Form.Destination, s.CountryName) {
		writeError(w, http.StatusUnprocessableEntity, "addresses must be in "+s.CountryName)
		return
	}
	order, err := s.Store.Create(r.Context(), req.ServiceRef, req.Form)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	err := s.Store.Cancel(r.Context(), orderID)
	switch {
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "order can no longer be cancelled")
	case errors.Is(err, store.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case err != nil:
		writeError(w, http.StatusBadGateway, "cancellation failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusCancelled)})
	}
}

type signInRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := s.Session.SignIn(r.Context(), req.UserID); err != nil {
		writeError(w, http.StatusBadGateway, "sign-in failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.SignOut(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "sign-out failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upgrade failed")
		return
	}
	sess := s.WSReg.Add(userID, conn)
	// reads only detect the peer closing; the server never expects messages
	go func() {
		defer s.WSReg.Remove(userID, sess)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleSuggestWS is the interactive suggestion channel: the client sends
// one text frame per keystroke and receives debounced suggestion results.
// Each connection gets its own resolver so its debounce window is private
// to that input field.
func (s *Server) handleSuggestWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upgrade failed")
		return
	}
	res := s.Resolver.Fresh()
	go func() {
		defer conn.Close()
		defer res.Close()
		var wmu sync.Mutex
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// the connection outlives the upgrade request's context
			res.Suggest(context.Background(), string(msg), func(out geocode.Result) {
				wmu.Lock()
				defer wmu.Unlock()
				if err := conn.WriteJSON(out); err != nil {
					s.logger.Debug("suggest ws write failed", "error", err)
				}
			})
		}
	}()
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNoUser):
		writeError(w, http.StatusUnauthorized, "sign in first")
	case errors.Is(err, store.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service not found")
	case errors.Is(err, store.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "backend unavailable, try again")
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

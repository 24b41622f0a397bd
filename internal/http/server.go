package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/courier-orders/internal/geocode"
	"github.com/example/courier-orders/internal/notify"
	"github.com/example/courier-orders/internal/session"
	"github.com/example/courier-orders/internal/store"
	"github.com/example/courier-orders/internal/validate"
	"github.com/example/courier-orders/internal/wallet"
)

// Server is the HTTP surface of the order engine. All collaborators are
// injected; NewServerFromEnv-style wiring lives in cmd/server.
type Server struct {
	Store     *store.Store
	Resolver  *geocode.Resolver
	Validator *validate.Validator
	Wallet    wallet.BalanceReader
	WSReg     *notify.WSRegistry
	Session   *session.Chain

	// CountryName feeds the textual address guard on the create path.
	CountryName string

	logger *slog.Logger
	mux    *mux.Router
}

func New(st *store.Store, resolver *geocode.Resolver, validator *validate.Validator,
	w wallet.BalanceReader, wsreg *notify.WSRegistry, sess *session.Chain,
	countryName string, logger *slog.Logger) *Server {
	s := &Server{
		Store:       st,
		Resolver:    resolver,
		Validator:   validator,
		Wallet:      w,
		WSReg:       wsreg,
		Session:     sess,
		CountryName: countryName,
		logger:      logger,
		mux:         mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/addresses/suggest", s.handleSuggest).Methods("GET")
	s.mux.HandleFunc("/api/v1/addresses/locate", s.handleLocate).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/quote", s.handleQuote).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/validate", s.handleValidate).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders", s.handleListOrders).Methods("GET")
	s.mux.HandleFunc("/api/v1/orders", s.handleCreateOrder).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{id}/cancel", s.handleCancelOrder).Methods("POST")
	s.mux.HandleFunc("/api/v1/session", s.handleSignIn).Methods("POST")
	s.mux.HandleFunc("/api/v1/session", s.handleSignOut).Methods("DELETE")
	s.mux.HandleFunc("/ws/orders/{user_id}", s.handleWS)
	s.mux.HandleFunc("/ws/addresses/suggest", s.handleSuggestWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

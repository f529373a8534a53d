// Package http exposes the ledger over a JSON API. Handlers stay thin:
// parse, call the finance service, render. All domain rules live below.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"financeiro/internal/middleware/ratelimit"
	"financeiro/internal/middleware/security"
	"financeiro/internal/middleware/trace"
	"financeiro/internal/services"
)

type Server struct {
	http.Server
	service *services.FinanceService

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.FinanceService) *Server {
	s := &Server{
		service:     service,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/debts", s.handleListDebts).Methods(http.MethodGet)
	api.HandleFunc("/debts", s.handleCreateDebt).Methods(http.MethodPost)
	api.HandleFunc("/debts/{id}", s.handleUpdateDebt).Methods(http.MethodPut)
	api.HandleFunc("/debts/{id}", s.handleDeleteDebt).Methods(http.MethodDelete)
	api.HandleFunc("/debts/{id}/pay", s.handlePayInstallment).Methods(http.MethodPost)

	api.HandleFunc("/incomes", s.handleListIncomes).Methods(http.MethodGet)
	api.HandleFunc("/incomes", s.handleCreateIncome).Methods(http.MethodPost)
	api.HandleFunc("/incomes/{id}", s.handleUpdateIncome).Methods(http.MethodPut)
	api.HandleFunc("/incomes/{id}", s.handleDeleteIncome).Methods(http.MethodDelete)

	api.HandleFunc("/roll-month", s.handleRollMonth).Methods(http.MethodPost)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.handleForceSync).Methods(http.MethodPost)
	api.HandleFunc("/sync/pull", s.handlePullFromCloud).Methods(http.MethodPost)
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)

	traceMW := trace.NewMiddleware(s.detector.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)

	r.Use(traceMW.Middleware, headersMW.Middleware, limitMW)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

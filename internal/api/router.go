package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/mfs-backend/internal/api/handlers"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/middleware"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/services"
)

type RouterDeps struct {
	Accounts *services.AccountService
	Balance  *services.BalanceService
	Txns     *services.TransactionService
	Requests *services.RequestService
	History  *services.HistoryService

	// Limiter throttles /api per client IP; nil disables it.
	Limiter        middleware.Limiter
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	authH := handlers.NewAuthHandler(d.Accounts)
	money := &handlers.MoneyHandler{Txns: d.Txns, Balance: d.Balance, History: d.History}
	agent := &handlers.AgentHandler{Requests: d.Requests}
	admin := &handlers.AdminHandler{Accounts: d.Accounts, Requests: d.Requests}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Content-Disposition"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.Limiter), chimw.Timeout(timeout))

		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Accounts))

			r.Post("/auth/logout", authH.Logout)
			r.Get("/balance", money.GetBalance)
			r.Post("/send-money", money.SendMoney)
			r.Get("/transaction/{id}", money.GetHistory)
			r.Get("/transaction/lookup/{txnID}", money.Lookup)

			// Role checks for these live in the services so callers get
			// operation-specific messages.
			r.Post("/cash-in", money.CashIn)
			r.Post("/cash-out", money.CashOut)
			r.Post("/agent/cash-request", agent.CashRequest)
			r.Post("/agent/withdraw-request", agent.WithdrawRequest)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/agent-approval", admin.PendingAgents)
				r.Post("/agent-approval/{id}", admin.DecideAgent)
				r.Get("/cash-approval", admin.CashRequests)
				r.Post("/cash-approval/{id}", admin.ResolveCashRequest)
				r.Get("/withdraw-request", admin.WithdrawRequests)
				r.Post("/withdraw-request/{id}", admin.ResolveWithdrawRequest)
				r.Post("/agents", admin.OnboardAgent)
				r.Get("/blocked-users", admin.BlockedUsers)
				r.Post("/block-user", admin.BlockUser)
				r.Post("/unblock-user", admin.UnblockUser)
			})
		})
	})

	return r
}

package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"cabin-order-services/internal/config"
	"cabin-order-services/internal/http/handlers"
	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, logger *zap.Logger, cfg config.Config, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/orders", h.PublicOrderCreate)
		r.Get("/bill", h.PublicBill)
		r.Get("/bill/pdf", h.PublicBillPDF)
		r.Get("/bookings/availability", h.PublicBookingAvailability)
		r.Post("/bookings", h.PublicBookingCreate)
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Post("/login", h.StaffLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.JWTSecret))

			r.Get("/orders", h.StaffOrdersList)
			r.Post("/orders/dispatch", h.StaffOrdersDispatch)
			r.Post("/orders/fulfill", h.StaffOrdersFulfill)
			r.Post("/orders/reject", h.StaffOrdersReject)
			r.Post("/orders/{id}/remove-items", h.StaffOrderRemoveItems)

			r.Get("/cabins", h.StaffCabins)

			r.Get("/bookings", h.StaffBookingsList)
			r.Put("/bookings/{id}", h.StaffBookingModify)

			r.Post("/ledger", h.StaffLedgerAppend)
			r.Get("/ledger/today", h.StaffLedgerToday)
			r.Get("/ledger/summary", h.StaffLedgerSummary)
			r.Post("/ledger/verify-counter", h.StaffVerifyCounter)

			r.Get("/callers", h.StaffCallersList)
			r.Put("/callers/active", h.StaffCallersSetActive)
			r.Post("/calls", h.StaffTriggerCall)

			r.Get("/reports/daily/archive", h.StaffArchiveDailyReport)
		})
	})

	if wsServer != nil {
		r.Get("/ws/staff/orders", wsServer.StaffOrdersWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cabin-order-services/internal/cabins"
	"cabin-order-services/internal/config"
	"cabin-order-services/internal/db"
	httpapi "cabin-order-services/internal/http"
	"cabin-order-services/internal/http/handlers"
	"cabin-order-services/internal/logger"
	"cabin-order-services/internal/notify"
	"cabin-order-services/internal/poll"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/storage"
	"cabin-order-services/internal/store"
	"cabin-order-services/internal/utils"
	"cabin-order-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// pollerSet adapts per-location pollers to the websocket snapshot source.
type pollerSet map[string]*poll.Poller

func (ps pollerSet) LatestSnapshot(location string) (any, bool) {
	p, ok := ps[location]
	if !ok {
		return nil, false
	}
	snapshot, ok := p.Latest()
	if !ok {
		return nil, false
	}
	return snapshot, true
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	orderStore := store.NewOrderStore(pool)
	bookingStore := store.NewBookingStore(pool)
	ledgerStore := store.NewLedgerStore(pool)
	callerStore := store.NewCallerStore(pool)
	layout := cabins.DefaultLayout()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("eventsQueue", queue.EventsQueue))
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without notifications", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureTopology(qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without notifications", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("notification workers enabled", zap.String("mode", "daemon"))

				translator := queue.NewTranslator(queueClient, func(ctx context.Context, location string) (string, bool) {
					caller, err := callerStore.Active(ctx, location)
					if err != nil {
						return "", false
					}
					return caller.Phone, true
				})
				go func() {
					err := queueClient.ConsumeWithRetry(queue.EventsQueue, translator.ProcessEvent, 5, 5*time.Second)
					if err != nil {
						log.Error("event consumer stopped", zap.Error(err))
					}
				}()

				worker := notify.NewWorker(notify.NewSender(cfg), log)
				go func() {
					err := queueClient.ConsumeWithRetry(queue.JobsQueue, worker.HandleJob, 5, 5*time.Second)
					if err != nil {
						log.Error("job consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("notification workers disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("notifications disabled (RABBITMQ_URL is empty)")
	}

	var reports *storage.ObjectStore
	if cfg.ObjectStoreEndpoint != "" {
		reports, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Warn("object store unavailable; report archiving disabled", zap.Error(err))
			reports = nil
		}
	} else {
		log.Info("report archiving disabled (OBJECT_STORE_ENDPOINT is empty)")
	}

	pollers := make(pollerSet)
	wsServer := ws.New(log, cfg, pollers)

	tz := utils.Location(cfg.Timezone)
	for location := range layout {
		p := &poll.Poller{
			Location:          location,
			CabinNames:        layout.Cabins(location),
			Orders:            orderStore,
			Bookings:          bookingStore,
			Logger:            log,
			OrderInterval:     cfg.OrderPollInterval,
			BookingInterval:   cfg.BookingPollInterval,
			HousefullThrottle: cfg.HousefullThrottle,
			Broadcaster:       wsServer,
			Now:               func() time.Time { return time.Now().In(tz) },
		}
		if queueClient != nil {
			p.Publisher = queueClient
		}
		pollers[location] = p
		go p.Run(ctx)
	}
	log.Info("pollers started", zap.String("locations", strings.Join(locationNames(layout), ",")))

	h := &handlers.Handler{
		Orders:   orderStore,
		Bookings: bookingStore,
		Ledger:   ledgerStore,
		Callers:  callerStore,
		Layout:   layout,
		Logger:   log,
		Config:   cfg,
		Reports:  reports,
	}
	if queueClient != nil {
		h.Queue = queueClient
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, log, cfg, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("cabin api ready", zap.String("base", "/api"))
		log.Info("cabin ws ready", zap.String("base", "/ws"))
		log.Info("cabin order service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

func locationNames(layout cabins.Layout) []string {
	names := make([]string, 0, len(layout))
	for name := range layout {
		names = append(names, name)
	}
	return names
}

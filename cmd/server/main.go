package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log" // Logging library
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/config" // Internal config loader
	"github.com/iliyamo/cinema-ticket-booking/internal/database"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/mailer"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
	"github.com/iliyamo/cinema-ticket-booking/internal/realtime"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-ticket-booking/internal/scheduler"
	"github.com/iliyamo/cinema-ticket-booking/internal/service"
)

// stores groups the persistence backends chosen at start-up.
type stores struct {
	bookings repository.BookingStore
	likes    repository.LikeStore
	comments repository.CommentStore
	users    repository.UserStore
	tokens   repository.TokenStore
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	level := slog.LevelInfo
	if cfg.Env == "dev" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, st := openStores(ctx, &cfg)
	if db != nil {
		defer db.Close()
	}

	origin := uuid.NewString() // identifies this instance's events
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	// Change feed: AMQP fan-out across instances, or in-process.
	dispatcher := queue.NewDispatcher()
	var pub queue.Publisher = dispatcher
	if cfg.RabbitURL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitURL, logger)
		defer amqpPub.Close()
		pub = amqpPub
		consumer := queue.NewConsumer(cfg.RabbitURL, dispatcher, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("change consumer stopped", "error", err)
			}
		}()
		log.Printf("change feed: rabbitmq exchange %s", queue.ChangesExchange)
	} else {
		log.Printf("change feed: in-process (RABBITMQ_URL not set)")
	}

	bookings := service.NewBookingService(st.bookings, pub, origin, logger)
	likes := service.NewLikeService(st.likes, pub, origin, logger)
	comments := service.NewCommentService(st.comments, pub, origin, logger)
	dispatcher.Handle(queue.TableBookings, bookings.ApplyChange)
	dispatcher.Handle(queue.TableLikes, likes.ApplyChange)
	dispatcher.Handle(queue.TableComments, comments.ApplyChange)

	hub := realtime.NewHub(logger)
	dispatcher.HandleAll(hub.Handle)

	notifier := &queue.BookingNotifier{Dir: cfg.LogDir, Origin: origin, Logger: logger}
	mcfg := mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	if mcfg.Enabled() {
		notifier.Users = st.users
		notifier.Mailer = mailer.New(mcfg)
	}
	dispatcher.Handle(queue.TableBookings, notifier.Handle)

	targets := []scheduler.Resyncer{bookings, likes, comments}
	if err := scheduler.Resync(targets...)(ctx); err != nil {
		logger.Error("initial load failed", "error", err)
	}

	cacheCfg := config.LoadCacheConfig()
	sched, err := scheduler.New(cfg.Location, time.Minute, logger)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := sched.Every(cfg.ResyncEvery, "resync", scheduler.Resync(targets...)); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	err = sched.Daily(3, 0, 0, "purge-refresh-tokens", func(ctx context.Context) error {
		n, err := st.tokens.PurgeExpired(ctx, time.Now())
		if err == nil && n > 0 {
			logger.Info("expired refresh tokens purged", "rows", n)
		}
		return err
	})
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if rdb != nil {
		// release flags and date windows change at midnight
		err := sched.Daily(0, 0, 5, "cache-flush", func(ctx context.Context) error {
			_, err := middleware.FlushCache(ctx, cacheCfg, rdb)
			return err
		})
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}
	sched.Start()
	defer sched.Shutdown()

	cat := catalog.New(time.Now, cfg.Location)
	auth := handler.NewAuthHandler(cfg, st.users, st.tokens)
	opts := router.Options{
		JWTSecret:  cfg.JWTSecret,
		BackendErr: cfg.BackendError,
		Cache:      cacheCfg,
		RateLimit:  config.LoadRateLimitConfig(),
		Redis:      rdb,
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, auth, handler.NewGoogleOAuth(cfg.Google, auth), opts)
	router.RegisterCatalog(e, &handler.CatalogHandler{Catalog: cat, Bookings: bookings, Likes: likes, Comments: comments}, opts)
	router.RegisterBookings(e, &handler.BookingHandler{Catalog: cat, Bookings: bookings, Users: st.users}, opts)
	router.RegisterSocial(e,
		&handler.LikeHandler{Catalog: cat, Likes: likes},
		&handler.CommentHandler{Catalog: cat, Comments: comments, Users: st.users},
		opts)
	router.RegisterAdmin(e,
		&handler.AdminHandler{Targets: targets, Cache: cacheCfg, Redis: rdb},
		&handler.RealtimeHandler{Hub: hub},
		opts)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	notifier.Wait()
}

// openStores connects to MySQL and applies the schema.  When the backend is
// not configured, or the database cannot be reached, it falls back to
// in-memory stores and leaves cfg.BackendError set, so writes are refused
// by RequireBackend and the caches start empty.
func openStores(ctx context.Context, cfg *config.Config) (*sql.DB, stores) {
	mem := stores{
		bookings: repository.NewMemoryBookingRepo(),
		likes:    repository.NewMemoryLikeRepo(),
		comments: repository.NewMemoryCommentRepo(),
		users:    repository.NewMemoryUserRepo(),
		tokens:   repository.NewMemoryTokenRepo(),
	}
	if !cfg.BackendConfigured() {
		log.Printf("warning: %s; serving catalog only", cfg.BackendError)
		return nil, mem
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Printf("warning: database unavailable: %v; serving catalog only", err)
		cfg.BackendError = "backend unavailable: database unreachable"
		return nil, mem
	}
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(mctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	return db, stores{
		bookings: repository.NewBookingRepo(db),
		likes:    repository.NewLikeRepo(db),
		comments: repository.NewCommentRepo(db),
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
	}
}

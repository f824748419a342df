package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manuscript-workflow/config"
	"manuscript-workflow/handlers"
	"manuscript-workflow/helper"
	"manuscript-workflow/middleware"
	"manuscript-workflow/notify"
	"manuscript-workflow/repositories"
	"manuscript-workflow/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type stores struct {
	manuscripts   repositories.ManuscriptRepository
	issues        repositories.IssueRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := config.InitLogger(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	st, err := openStores(cfg)
	if err != nil {
		logger.WithError(err).WithField("storage", cfg.Storage).Fatal("open storage")
	}

	rdb, err := config.InitRedis(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("open redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	ttl, _ := cfg.SessionTTL()
	var sessions repositories.SubmissionSessionRepository
	if rdb != nil {
		sessions = repositories.NewRedisSubmissionSessionRepository(rdb, cfg.SessionKeyPrefix, ttl)
	} else {
		logger.Warn("redis not configured; submission sessions are kept in process memory")
		sessions = repositories.NewMemorySubmissionSessionRepository(ttl)
	}

	// Initialize services
	settings := services.Settings{
		DOIPrefix:           cfg.Workflow.DOIPrefix,
		ManuscriptPrefix:    cfg.Workflow.ManuscriptPrefix,
		AcceptanceThreshold: cfg.Workflow.AcceptanceThreshold,
		MaxReviewers:        cfg.Workflow.MaxReviewers,
		PublishRetries:      cfg.Workflow.PublishRetries,
	}
	notificationService := services.NewNotificationService(st.notifications, buildSinks(cfg, rdb, st.users)...)
	userService := services.NewUserService(st.users)
	manuscriptService := services.NewManuscriptService(st.manuscripts, notificationService, settings)
	reviewerService := services.NewReviewerService(st.manuscripts, st.users, notificationService, settings)
	issueService := services.NewIssueService(st.issues, st.manuscripts, notificationService, settings)
	submissionService := services.NewSubmissionService(sessions, st.manuscripts, notificationService, settings)

	// Initialize handlers
	h := helper.NewHTTPHelper()
	routes := handlers.Handlers{
		Profile:    handlers.NewProfileHandler(userService, notificationService, h),
		Submission: handlers.NewSubmissionHandler(submissionService, h),
		Manuscript: handlers.NewManuscriptHandler(manuscriptService, h),
		Reviewer:   handlers.NewReviewerHandler(reviewerService, h),
		Issue:      handlers.NewIssueHandler(issueService, h),
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	routes.Register(router, middleware.AuthMiddleware(cfg.JWTKey(), cfg.JWTIssuer))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.Storage}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

func openStores(cfg config.Config) (stores, error) {
	if cfg.Storage == config.StorageMemory {
		mem := repositories.NewMemoryDB()
		for _, u := range cfg.SeedUsers() {
			mem.PutUser(u)
		}
		logrus.WithField("users", len(cfg.Users)).Info("memory storage seeded")
		return stores{
			manuscripts:   repositories.NewMemoryManuscriptRepository(mem),
			issues:        repositories.NewMemoryIssueRepository(mem),
			users:         repositories.NewMemoryUserRepository(mem),
			notifications: repositories.NewMemoryNotificationRepository(mem),
		}, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return stores{}, err
	}
	if err := repositories.Migrate(db); err != nil {
		return stores{}, err
	}
	return stores{
		manuscripts:   repositories.NewManuscriptRepository(db),
		issues:        repositories.NewIssueRepository(db),
		users:         repositories.NewUserRepository(db),
		notifications: repositories.NewNotificationRepository(db),
	}, nil
}

func buildSinks(cfg config.Config, rdb *redis.Client, users repositories.UserRepository) []notify.Sink {
	sinks := []notify.Sink{notify.NewLogSink(logrus.StandardLogger())}
	if rdb != nil {
		if sink, err := notify.NewRedisStreamSink(rdb, cfg.NotificationStream); err != nil {
			logrus.WithError(err).Warn("redis notification stream disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.SMTP.Enabled() {
		if sink, err := notify.NewMailSink(cfg.SMTP.NewDialer(), users, cfg.SMTP.From); err != nil {
			logrus.WithError(err).Warn("mail notifications disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

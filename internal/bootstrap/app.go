package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"infosec-dashboard/internal/app"
	"infosec-dashboard/internal/assessment"
	"infosec-dashboard/internal/auth"
	"infosec-dashboard/internal/cache"
	"infosec-dashboard/internal/catalog"
	"infosec-dashboard/internal/chat"
	"infosec-dashboard/internal/config"
	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/model"
	mysqlClient "infosec-dashboard/internal/platform/mysql"
	rabbitmqClient "infosec-dashboard/internal/platform/rabbitmq"
	redisClient "infosec-dashboard/internal/platform/redis"
	"infosec-dashboard/internal/repository"
	"infosec-dashboard/internal/worker"
)

const tokenNamespace = "infosec-dashboard"

type Options struct {
	// StartWorkers runs the transcript persist worker in this process.
	StartWorkers bool
}

type App struct {
	Config *config.Config
	Logger *zap.Logger

	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Sessions         *auth.Provider
	Tokens           *auth.TokenStore
	Gateway          *gateway.Client
	Dashboard        *app.Dashboard
	Transcripts      *repository.TranscriptRepository
	TranscriptWorker *worker.TranscriptPersistWorker

	publisher *rabbitmqClient.TranscriptPublisher
	unbind    []func()

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	var backend auth.TokenBackend = auth.NewMemoryBackend()
	if a.Redis != nil {
		backend = cache.NewTokenCache(a.Redis, tokenNamespace, 0)
	}
	a.Tokens = auth.NewTokenStore(backend, cfg.Auth.TokenKey)

	identity := auth.NewIdentityClient(cfg.Auth.BaseURL, nil)
	a.Sessions = auth.NewProvider(identity, cfg.RefreshSkew(), logger.Named("auth"))
	a.unbind = append(a.unbind, auth.BindTokenStore(a.Sessions, a.Tokens, logger))

	a.Gateway = gateway.NewClient(
		auth.NewCredentials(a.Sessions, a.Tokens, logger.Named("auth")),
		gateway.Options{
			Endpoints: gateway.Endpoints{
				GraphQL:       cfg.Backend.GraphQLURL,
				SheetWebhook:  cfg.Backend.SheetWebhookURL,
				ChatWebhook:   cfg.Backend.ChatWebhookURL,
				UploadWebhook: cfg.Backend.UploadWebhookURL,
			},
			StoragePrefix: cfg.Backend.StoragePrefix,
			MaxUploadSize: cfg.Backend.MaxUploadSizeBytes,
			Timeout:       cfg.BackendTimeout(),
			Logger:        logger.Named("gateway"),
		},
	)

	source, err := a.assessmentSource(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if a.MQConn != nil {
		a.publisher = rabbitmqClient.NewTranscriptPublisher(a.MQConn, cfg.RabbitMQ.TranscriptQueue)
	}
	a.Dashboard = app.NewDashboard(
		app.NewAuthService(a.Sessions),
		app.NewSheetService(a.Gateway),
		catalog.New(a.Gateway, logger.Named("catalog")),
		assessment.NewHistory(source),
		a.newChat,
	)
	a.unbind = append(a.unbind, a.Sessions.Subscribe(func(s model.Session) {
		if !s.Authenticated {
			a.Dashboard.Reset()
		}
	}))

	if a.MySQL != nil {
		a.Transcripts = repository.NewTranscriptRepository(a.MySQL)
	}
	if opts.StartWorkers && a.MQConn != nil && a.Transcripts != nil {
		a.TranscriptWorker = worker.NewTranscriptPersistWorker(
			a.MQConn,
			a.Transcripts,
			cfg.RabbitMQ.TranscriptQueue,
			logger,
		)
		if err := a.TranscriptWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start transcript worker failed: %w", err)
		}
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config
	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
	}
	if cfg.Redis.Enabled {
		cli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = cli
	}
	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		if err := rabbitmqClient.DeclareQueue(conn, cfg.RabbitMQ.TranscriptQueue); err != nil {
			_ = conn.Close()
			return err
		}
		a.MQConn = conn
	}
	return nil
}

// assessmentSource picks the configured source. An empty mysql table is
// seeded with the demonstration data.
func (a *App) assessmentSource(ctx context.Context) (assessment.Source, error) {
	switch a.Config.Assessments.Source {
	case config.AssessmentSourceMySQL:
		if a.MySQL == nil {
			return nil, errors.New("assessment source mysql requires a mysql connection")
		}
		repo := repository.NewAssessmentRepository(a.MySQL)
		seeded, err := assessment.SeedIfEmpty(ctx, repo, assessment.DemoAssessments())
		if err != nil {
			return nil, fmt.Errorf("seed assessments failed: %w", err)
		}
		if seeded > 0 {
			a.Logger.Info("seeded assessment table", zap.Int("assessments", seeded))
		}
		return repo, nil
	default:
		return assessment.NewStaticSource(nil), nil
	}
}

func (a *App) newChat() *chat.Session {
	opts := []chat.Option{
		chat.WithLogger(a.Logger.Named("chat")),
		chat.WithStoragePrefix(a.Config.Backend.StoragePrefix),
	}
	if a.publisher != nil {
		opts = append(opts, chat.WithRecorder(a.publisher))
	}
	return chat.NewSession(a.Gateway, opts...)
}

// Warm loads the assessment history and, when signed in, the document
// catalog. A failed document load is logged and left for the next refresh.
func (a *App) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Dashboard.Assessments.Refresh(gctx)
	})
	if a.Sessions.CurrentSession().Authenticated {
		g.Go(func() error {
			if err := a.Dashboard.Documents.Refresh(gctx); err != nil {
				a.Logger.Warn("initial document load failed", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *App) Close() error {
	var errs []error
	for _, fn := range a.unbind {
		fn()
	}
	a.unbind = nil
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transcript publisher failed: %w", err))
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.MySQL != nil {
		if sqlDB, err := a.MySQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close mysql failed: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

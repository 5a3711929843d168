// Package core собирает зависимости, общие для HTTP API, планировщика
// и billingctl: хранилище, кэш, календарь, сервисы и каналы уведомлений.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-billing/internal/cache"
	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/clock"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-billing/internal/metrics"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
	"github.com/magabrotheeeer/subscription-billing/internal/rabbitmq"
	auditservice "github.com/magabrotheeeer/subscription-billing/internal/services/audit"
	"github.com/magabrotheeeer/subscription-billing/internal/services/notify"
	schedulerservice "github.com/magabrotheeeer/subscription-billing/internal/services/scheduler"
	subscriberservice "github.com/magabrotheeeer/subscription-billing/internal/services/subscriber"
	userservice "github.com/magabrotheeeer/subscription-billing/internal/services/users"
	"github.com/magabrotheeeer/subscription-billing/internal/storage"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// Core собранное ядро.
type Core struct {
	Storage     *storage.Storage
	Cache       *cache.Cache
	Calendar    *calendar.Adapter
	Gate        *permission.Gate
	JWT         *jwt.MakerImpl
	Subscribers *subscriberservice.Service
	Audit       *auditservice.Service
	Users       *userservice.Service
	Scheduler   *schedulerservice.SchedulerService
	Dispatcher  *notify.Dispatcher

	conn      *amqp.Connection
	publisher *rabbitmq.Publisher
	logger    *slog.Logger
}

// NewCalendar строит адаптер календаря из конфигурации.
func NewCalendar(cfg config.Calendar) (*calendar.Adapter, error) {
	const op = "core.NewCalendar"
	loc, err := cfg.LoadLocation()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var table *calendar.Table
	if cfg.TablePath != "" {
		table, err = calendar.LoadTable(cfg.TablePath)
	} else {
		table, err = calendar.DefaultTable()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return calendar.New(table, loc), nil
}

// New подключается к PostgreSQL, Redis и брокеру и собирает сервисы.
// Метрики регистрируются в reg; nil отключает регистрацию.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Core, error) {
	const op = "core.New"

	cal, err := NewCalendar(cfg.Calendar)
	if err != nil {
		return nil, err
	}
	gate, err := permission.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}
	c := &Core{Storage: db, Calendar: cal, Gate: gate, logger: logger}

	if err := storage.WaitReady(ctx, db, dbReadyAttempts, dbReadyDelay); err != nil {
		c.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%s: cache not initialized: %w", op, err)
	}

	channels, err := c.channels(cfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.Dispatcher = notify.NewDispatcher(logger, cfg.Notify.Timeout, channels...)

	clk := clock.Real{}
	c.JWT = jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	c.Audit = auditservice.NewAuditService(db, gate, logger)
	c.Users = userservice.NewUserService(db, c.JWT, gate, logger)
	c.Subscribers = subscriberservice.NewSubscriberService(
		db, c.Cache, gate, billing.New(cal), cal, clk, cfg.StorageOpTimeout, logger)
	c.Scheduler = schedulerservice.NewSchedulerService(schedulerservice.Deps{
		Source:      db,
		Deactivator: c.Subscribers,
		Audit:       c.Audit,
		Dispatcher:  c.Dispatcher,
		Locker:      c.Cache,
		Calendar:    cal,
		Gate:        gate,
		Clock:       clk,
		Metrics:     metrics.NewScheduler(reg),
	}, cfg.Scheduler, logger)

	logger.Info("core initialized",
		slog.Any("channels", c.Dispatcher.Channels()),
		slog.String("location", cal.Location().String()),
	)
	return c, nil
}

func (c *Core) channels(cfg *config.Config, logger *slog.Logger) ([]notify.Channel, error) {
	out := make([]notify.Channel, 0, len(cfg.Notify.Channels))
	for _, name := range cfg.Notify.Channels {
		switch name {
		case "email":
			if cfg.Notify.OperatorEmail == "" {
				return nil, fmt.Errorf("email channel requires notify.operator_email")
			}
			out = append(out, notify.NewEmailChannel(smtp.NewTransport(cfg.SMTP, logger), cfg.Notify.OperatorEmail, logger))
		case "sms":
			conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
			if err != nil {
				return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
			}
			c.conn = conn
			ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.NotificationQueues(cfg.RabbitMQ))
			if err != nil {
				return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
			}
			c.publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
			out = append(out, notify.NewSMSChannel(c.publisher, cfg.RabbitMQ.SMSRoutingKey))
		default:
			return nil, fmt.Errorf("unknown notification channel %q", name)
		}
	}
	return out, nil
}

// Close освобождает соединения. Безопасен для частично собранного ядра.
func (c *Core) Close() {
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			c.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

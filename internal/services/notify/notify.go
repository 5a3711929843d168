// Package notify доставляет пакеты уведомлений ежедневного прохода
// по настроенным каналам: письмо оператору и SMS через RabbitMQ.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Kind тип пакета.
type Kind string

const (
	KindReminder     Kind = "reminder"
	KindDeactivation Kind = "deactivation"
)

// Item одна строка пакета.
type Item struct {
	Name           string    `json:"name"`
	Contact        string    `json:"contact"`
	Days           int       `json:"days"` // Дней до окончания; для отключения дней просрочки
	EndDate        time.Time `json:"end_date"`
	EndDateDisplay string    `json:"end_date_display"`
}

// Batch все уведомления одного типа за проход.
type Batch struct {
	Kind  Kind      `json:"kind"`
	RunAt time.Time `json:"run_at"`
	Items []Item    `json:"items"`
}

// Channel канал доставки. Send либо доставляет весь пакет, либо возвращает ошибку.
type Channel interface {
	Name() string
	Send(ctx context.Context, batch Batch) error
}

// Result итог отправки пакета в один канал.
type Result struct {
	Channel string
	Success bool
	Err     error
}

// Dispatcher отправляет пакеты в каналы. Каждая отправка ограничена timeout,
// ошибки не повторяются.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	log      *slog.Logger
}

// NewDispatcher создаёт диспетчер над набором каналов.
func NewDispatcher(log *slog.Logger, timeout time.Duration, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		log:      log,
	}
}

// Channels возвращает имена каналов в порядке отправки.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Broadcast отправляет пакет в каждый канал ровно один раз.
// Сбой одного канала не мешает остальным.
func (d *Dispatcher) Broadcast(ctx context.Context, batch Batch) []Result {
	results := make([]Result, 0, len(d.channels))
	for _, ch := range d.channels {
		results = append(results, d.Send(ctx, ch, batch))
	}
	return results
}

// Send отправляет пакет в один канал.
func (d *Dispatcher) Send(ctx context.Context, ch Channel, batch Batch) Result {
	const op = "notify.Send"
	log := d.log.With(
		slog.String("op", op),
		slog.String("channel", ch.Name()),
		slog.String("kind", string(batch.Kind)),
		slog.Int("items", len(batch.Items)),
	)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- ch.Send(ctx, batch)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		log.Error("dispatch failed", sl.Err(err))
		return Result{
			Channel: ch.Name(),
			Err:     fmt.Errorf("%s: %s: %w", op, ch.Name(), errors.Join(models.ErrDispatchFailure, err)),
		}
	}
	log.Info("batch dispatched")
	return Result{Channel: ch.Name(), Success: true}
}

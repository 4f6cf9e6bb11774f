package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"infosec-dashboard/internal/model"
)

// TranscriptStore persists one transcript message.
type TranscriptStore interface {
	Save(ctx context.Context, msg *model.Message) error
}

// Delivery is the part of an AMQP delivery the worker needs.
type Delivery interface {
	Body() []byte
	Ack() error
	Nack(requeue bool) error
}

// TranscriptPersistWorker drains the transcript queue into the store.
type TranscriptPersistWorker struct {
	conn      *amqp.Connection
	store     TranscriptStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTranscriptPersistWorker(conn *amqp.Connection, store TranscriptStore, queueName string, logger *zap.Logger) *TranscriptPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.Named("transcript-worker"),
	}
}

func (w *TranscriptPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	amqpDeliveries := make(chan Delivery)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		defer close(amqpDeliveries)
		defer ch.Close()
		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case amqpDeliveries <- amqpDelivery{d}:
				case <-workerCtx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	go func() {
		defer w.wg.Done()
		w.Run(workerCtx, amqpDeliveries)
	}()

	w.logger.Info("transcript worker started", zap.String("queue", w.queueName))
	return nil
}

// Run handles deliveries until the channel closes or ctx is done.
func (w *TranscriptPersistWorker) Run(ctx context.Context, deliveries <-chan Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

func (w *TranscriptPersistWorker) handle(ctx context.Context, d Delivery) {
	var msg model.Message
	if err := json.Unmarshal(d.Body(), &msg); err != nil {
		w.logger.Warn("decode transcript message failed", zap.Error(err))
		_ = d.Nack(false)
		return
	}
	if err := w.store.Save(ctx, &msg); err != nil {
		w.logger.Error("persist transcript message failed", zap.String("message_id", msg.ID), zap.Error(err))
		_ = d.Nack(false)
		return
	}
	_ = d.Ack()
}

func (w *TranscriptPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte { return a.d.Body }
func (a amqpDelivery) Ack() error { return a.d.Ack(false) }
func (a amqpDelivery) Nack(requeue bool) error { return a.d.Nack(false, requeue) }

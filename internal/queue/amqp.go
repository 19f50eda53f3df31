// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
)

// AMQPTransport publishes chain envelopes to RabbitMQ and consumes them on
// workers. This is the production transport for multi-worker topologies.
//
// Retry and dead-lettering are the broker's concern: a failed job is
// nacked without requeue, so redelivery only happens where the queue is
// configured for it, and the chain gate keeps any redelivery idempotent.
type AMQPTransport struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

// NewAMQPTransport connects to the broker at url.
func NewAMQPTransport(url string, logger *slog.Logger) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPTransport{conn: conn, ch: ch, logger: logger}, nil
}

// DeclareQueue declares the named durable queue. Idempotent.
func (t *AMQPTransport) DeclareQueue(name string) error {
	_, err := t.ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// Enqueue publishes the envelope to its queue as a persistent message.
func (t *AMQPTransport) Enqueue(ctx context.Context, env Envelope) (string, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = t.ch.PublishWithContext(ctx,
		"",        // default exchange
		env.Queue, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.Job.ID,
			Body:         body,
		})
	if err != nil {
		return "", fmt.Errorf("failed to publish envelope: %w", err)
	}
	return env.Job.ID, nil
}

// Consume processes deliveries from the named queue through the runner
// until ctx is canceled. Successful jobs are acked; failures are nacked
// without requeue. A chain abort is a handled outcome, not a consume
// error: the runner already dropped the tail and cleaned up.
func (t *AMQPTransport) Consume(ctx context.Context, queueName string, runner *Runner) error {
	if err := t.DeclareQueue(queueName); err != nil {
		return err
	}

	// Prefetch 1: a worker holds at most one unacked job.
	if err := t.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := t.ch.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack is false. We will manually ack.
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			t.handleDelivery(ctx, delivery, runner)
		}
	}
}

func (t *AMQPTransport) handleDelivery(ctx context.Context, delivery amqp.Delivery, runner *Runner) {
	var env Envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		t.logger.Error("discarding malformed envelope", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	err := runner.Handle(ctx, env)
	switch {
	case err == nil:
		_ = delivery.Ack(false)
	case errors.Is(err, exporterrors.ErrChainAborted):
		// Terminal by design; do not requeue.
		_ = delivery.Ack(false)
	default:
		// Infrastructure failure (e.g. successor enqueue); let the
		// broker redeliver per its policy.
		_ = delivery.Nack(false, false)
	}
}

// Close releases the channel and connection.
func (t *AMQPTransport) Close() error {
	if err := t.ch.Close(); err != nil {
		_ = t.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return t.conn.Close()
}

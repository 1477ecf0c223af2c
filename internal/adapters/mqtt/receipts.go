// Package mqtt receives worker notification receipts from the messaging
// collaborator on siteops/notifications/<project>/<shift>/<worker>.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/ports/secondary"
)

const topicRoot = "siteops/notifications"

// Config configures the broker connection.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// ProjectTopic matches every receipt of a project.
func ProjectTopic(projectID string) string {
	return fmt.Sprintf("%s/%s/+/+", topicRoot, projectID)
}

// receiptBody is the JSON payload of a receipt message.
type receiptBody struct {
	Status shift.NotificationStatus `json:"status"`
	At     time.Time                `json:"at"`
}

// ParseReceipt decodes a receipt from its topic and payload.
func ParseReceipt(topic string, payload []byte) (secondary.NotificationReceipt, error) {
	rest, ok := strings.CutPrefix(topic, topicRoot+"/")
	parts := strings.Split(rest, "/")
	if !ok || len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return secondary.NotificationReceipt{}, fmt.Errorf("unexpected receipt topic %q", topic)
	}

	var body receiptBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return secondary.NotificationReceipt{}, fmt.Errorf("failed to decode receipt: %w", err)
	}
	if !body.Status.Valid() {
		return secondary.NotificationReceipt{}, fmt.Errorf("unknown notification status %q", body.Status)
	}
	if body.At.IsZero() {
		body.At = time.Now().UTC()
	}

	return secondary.NotificationReceipt{
		ProjectID: parts[0],
		ShiftID:   parts[1],
		WorkerID:  parts[2],
		Status:    body.Status,
		At:        body.At,
	}, nil
}

// Receipts implements secondary.NotificationReceipts.
type Receipts struct {
	client paho.Client
	qos    byte
	logger *zap.Logger
}

// Connect dials the broker.
func Connect(cfg Config, logger *zap.Logger) (*Receipts, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return NewReceipts(client, cfg.QoS, logger), nil
}

// NewReceipts wraps a connected client.
func NewReceipts(client paho.Client, qos byte, logger *zap.Logger) *Receipts {
	return &Receipts{client: client, qos: qos, logger: logging.OrNop(logger).Named("mqtt")}
}

// Listen delivers the project's receipts to handler until ctx is done.
// Handler errors are logged; delivery continues.
func (r *Receipts) Listen(ctx context.Context, projectID string, handler secondary.ReceiptHandler) error {
	topic := ProjectTopic(projectID)
	log := r.logger.With(zap.String("topic", topic))

	token := r.client.Subscribe(topic, r.qos, func(_ paho.Client, msg paho.Message) {
		receipt, err := ParseReceipt(msg.Topic(), msg.Payload())
		if err != nil {
			log.Warn("bad receipt dropped", zap.Error(err))
			return
		}
		if err := handler(ctx, receipt); err != nil {
			log.Warn("receipt not applied",
				zap.String("worker_id", receipt.WorkerID),
				zap.String("status", string(receipt.Status)),
				zap.Error(err))
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}

	<-ctx.Done()

	if token := r.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
		log.Warn("failed to unsubscribe", zap.Error(token.Error()))
	}
	return ctx.Err()
}

// Close disconnects from the broker.
func (r *Receipts) Close() {
	r.client.Disconnect(250)
}

var _ secondary.NotificationReceipts = (*Receipts)(nil)

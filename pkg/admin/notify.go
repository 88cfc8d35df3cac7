package admin

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// NotificationKind classifies a notification.
type NotificationKind string

// Notification kinds.
const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notifier receives user-facing outcome messages of client operations.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(message string, kind NotificationKind)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, kind NotificationKind)

// Notify calls f.
func (f NotifierFunc) Notify(message string, kind NotificationKind) {
	f(message, kind)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string, NotificationKind) {}

// LogNotifier forwards notifications to a Logger.
type LogNotifier struct {
	Logger Logger
}

// Notify logs successes at info level and errors at error level.
func (n *LogNotifier) Notify(message string, kind NotificationKind) {
	if n == nil || n.Logger == nil {
		return
	}

	fields := map[string]interface{}{"kind": string(kind)}
	if kind == NotificationError {
		n.Logger.Error(message, fields)

		return
	}

	n.Logger.Info(message, fields)
}

// MultiNotifier fans a notification out to several notifiers in order.
type MultiNotifier []Notifier

// Notify forwards to every non-nil notifier.
func (m MultiNotifier) Notify(message string, kind NotificationKind) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(message, kind)
		}
	}
}

// Publisher is the subset of *nats.Conn used by NATSNotifier.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// DefaultNotificationSubject is the NATS subject used when none is set.
const DefaultNotificationSubject = "storeadmin.notifications"

// NotificationEvent is the payload published for each notification.
type NotificationEvent struct {
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind"`
	Time    time.Time        `json:"time"`
}

// NATSNotifier publishes notifications as JSON events on a NATS subject.
// Publish failures are logged and otherwise ignored.
type NATSNotifier struct {
	conn    Publisher
	subject string
	logger  Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewNATSNotifier creates a notifier publishing to subject over conn.
func NewNATSNotifier(conn Publisher, subject string, logger Logger) *NATSNotifier {
	if subject == "" {
		subject = DefaultNotificationSubject
	}

	return &NATSNotifier{
		conn:    conn,
		subject: subject,
		logger:  logger,
		now:     time.Now,
	}
}

// Subject returns the subject events are published on.
func (n *NATSNotifier) Subject() string {
	return n.subject
}

// Notify publishes the event.
func (n *NATSNotifier) Notify(message string, kind NotificationKind) {
	err := n.publish(NotificationEvent{Message: message, Kind: kind, Time: n.now().UTC()})
	if err != nil && n.logger != nil {
		n.logger.Warn("Failed to publish notification", map[string]interface{}{
			"subject": n.subject,
			"error":   err.Error(),
		})
	}
}

func (n *NATSNotifier) publish(event NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.conn.Publish(n.subject, data)
	if err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}

	return nil
}

package service

import (
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
)

// Domain events emitted by the services. Side effects are explicit: a service
// returns or emits events and the Dispatcher applies them in order, instead
// of mutations being triggered implicitly on save.

type DetectionCreated struct {
	Detection    *models.DetectionResult
	PlatformType string
}

type DetectionTransitioned struct {
	Detection *models.DetectionResult
	From      string
	At        time.Time
}

type ContentCollected struct {
	Content *models.CollectedContent
}

type SessionCreated struct {
	Session      *models.MonitoringSession
	PlatformType string
}

type AlertRaised struct {
	Detection *models.DetectionResult
	AlertType string // "escalation" or "critical_detection"
}

// EventHandler consumes domain events. The aggregator and the notifier both
// implement it.
type EventHandler interface {
	HandleEvent(event any) error
}

// Dispatcher fans events out to the registered handlers in registration
// order. Handler failures are logged and do not stop the fan-out: a broken
// notifier must not lose metrics, and vice versa.
type Dispatcher struct {
	handlers []EventHandler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger, handlers ...EventHandler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Register appends a handler.
func (d *Dispatcher) Register(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch applies the events, in order, to every handler.
func (d *Dispatcher) Dispatch(events ...any) {
	for _, event := range events {
		for _, h := range d.handlers {
			if err := h.HandleEvent(event); err != nil {
				d.logger.Error("Event handler failed",
					zap.String("event", eventName(event)),
					zap.Error(err))
			}
		}
	}
}

func eventName(event any) string {
	switch event.(type) {
	case DetectionCreated:
		return "detection_created"
	case DetectionTransitioned:
		return "detection_transitioned"
	case ContentCollected:
		return "content_collected"
	case SessionCreated:
		return "session_created"
	case AlertRaised:
		return "alert_raised"
	default:
		return "unknown"
	}
}

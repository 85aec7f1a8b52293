package config_handler

import (
	"context"
	"encoding/json"

	"driftwatch/internal/broker"
	"driftwatch/internal/logger"
	"driftwatch/pkg/models"
)

type ConfigReloader interface {
	ReloadRules(ctx context.Context, skipJitter ...bool) error
}

type ConfigUpdater interface {
	ApplyConfig(event models.ConfigUpdateEvent) error
}

type Handler struct {
	expectedEventType   string
	expectedServiceType string
	reloader            ConfigReloader
	updater             ConfigUpdater
	logger              logger.Logger
}

func NewHandler(expectedEventType, expectedServiceType string, log logger.Logger) *Handler {
	return &Handler{
		expectedEventType:   expectedEventType,
		expectedServiceType: expectedServiceType,
		logger:              log,
	}
}

func NewHandlerWithReloader(expectedEventType, expectedServiceType string, reloader ConfigReloader, log logger.Logger) *Handler {
	return NewHandler(expectedEventType, expectedServiceType, log).WithReloader(reloader)
}

func NewHandlerWithUpdater(expectedEventType, expectedServiceType string, updater ConfigUpdater, log logger.Logger) *Handler {
	return NewHandler(expectedEventType, expectedServiceType, log).WithUpdater(updater)
}

func (h *Handler) WithReloader(reloader ConfigReloader) *Handler {
	h.reloader = reloader
	return h
}

func (h *Handler) WithUpdater(updater ConfigUpdater) *Handler {
	h.updater = updater
	return h
}

func (h *Handler) HandleConfigUpdateEvent(ctx context.Context, msg broker.Message) error {
	var envelope models.ConfigEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		h.logger.Errorw("Failed to unmarshal config event", "error", err, "id", msg.ID)
		return err
	}

	event := envelope.Event

	if event.EventType == "" {
		h.logger.Warnw("Config event missing event_type", "id", envelope.ID)
		return nil
	}

	if event.EventType != h.expectedEventType {
		return nil
	}

	if event.ServiceType != h.expectedServiceType {
		return nil
	}

	h.logger.Infow("Received config update event",
		"event_type", event.EventType,
		"action", event.Action,
		"rule_id", event.RuleID,
	)

	if h.reloader != nil {
		if err := h.reloader.ReloadRules(ctx); err != nil {
			h.logger.Errorw("Failed to reload rules after config update", "error", err)
			return err
		}
		h.logger.Infow("Rules reloaded successfully after config update", "action", event.Action)
	}

	if h.updater != nil {
		if err := h.updater.ApplyConfig(event); err != nil {
			h.logger.Errorw("Failed to apply updated config", "error", err)
			return err
		}
	}

	return nil
}

package evaluation

import (
	"driftwatch/internal/config_handler"
	"driftwatch/internal/logger"
	"driftwatch/pkg/models"
)

type Handler = config_handler.Handler

func NewHandler(service *Service, log logger.Logger) *Handler {
	return config_handler.NewHandlerWithReloader(
		models.EventTypeTriggerRuleUpdated,
		models.ServiceTypeEvaluation,
		service,
		log,
	)
}

package intake

import (
	"driftwatch/internal/config_handler"
	"driftwatch/internal/logger"
	"driftwatch/pkg/models"
)

type Handler = config_handler.Handler

func NewHandler(service *Service, log logger.Logger) *Handler {
	return config_handler.NewHandlerWithUpdater(
		models.EventTypeIntakeConfigUpdated,
		models.ServiceTypeIntake,
		service,
		log,
	)
}

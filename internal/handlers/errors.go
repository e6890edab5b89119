package handlers

import (
	"errors"
	"net/http"

	"buildtrack/internal/backend"
	"buildtrack/internal/logger"
	"buildtrack/internal/responses"
	"buildtrack/internal/services"
	"buildtrack/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const unexpectedMessage = "unexpected error, please retry"

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, log zerolog.Logger, action string, err error) {
	log = logger.WithContext(c.Request.Context(), log)

	if v, ok := services.AsValidation(err); ok {
		log.Info().Str("action", action).Str("rule", v.Rule).Msg(v.Message)
		responses.FailWithData(c, http.StatusUnprocessableEntity, v, v.Message)
		return
	}

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		responses.Fail(c, http.StatusNotFound, err, "wizard session not found")
	case errors.Is(err, wizard.ErrStepLocked), errors.Is(err, wizard.ErrStepOutOfRange):
		responses.Fail(c, http.StatusConflict, err, "step cannot be entered")
	case errors.Is(err, wizard.ErrClosed):
		responses.Fail(c, http.StatusGone, err, "wizard session is closed")
	case errors.As(err, &apiErr):
		msg := apiErr.Message()
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		if apiErr.IsValidation() {
			log.Info().Str("action", action).Int("upstream_status", apiErr.Status).Msg("backend rejected input")
			responses.FailWithData(c, http.StatusBadRequest, apiErr.Fields, msg)
			return
		}
		if apiErr.Status == http.StatusNotFound {
			responses.Fail(c, http.StatusNotFound, nil, msg)
			return
		}
		log.Error().Err(err).Str("action", action).Msg("backend request failed")
		responses.Fail(c, http.StatusBadGateway, nil, msg)
	default:
		log.Error().Err(err).Str("action", action).Msg("request failed")
		responses.Fail(c, http.StatusInternalServerError, nil, unexpectedMessage)
	}
}

func badRequest(c *gin.Context, err error, message string) {
	responses.Fail(c, http.StatusBadRequest, err, message)
}

package handlers

import (
	"net/http"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/logger"
)

func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, internalMessage string) {
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case apperror.Is(err, apperror.KindValidation):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case apperror.Is(err, apperror.KindConflict):
		writeJSONResponse(w, http.StatusConflict, ErrorResponse{
			Error:     http.StatusText(http.StatusConflict),
			Message:   err.Error(),
			Conflicts: apperror.TargetsOf(err),
		})
	default:
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, internalMessage)
	}
}

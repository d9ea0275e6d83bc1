package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &ve):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, ve.Msg, ve.Fields)

	case errors.Is(err, domain.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Resource not found")

	case errors.Is(err, domain.ErrSectorSoldOut):
		utils.ResponseConflict(w, "Sector is sold out")

	case errors.Is(err, domain.ErrEmailTaken):
		log.Warn(operation+" failed - email taken", zap.Error(err))
		utils.ResponseConflict(w, "Email already registered")

	case errors.Is(err, domain.ErrInvalidCredentials):
		utils.ResponseUnauthorized(w, "Invalid email or password")

	case errors.Is(err, domain.ErrConflict):
		log.Error(operation+" hit a storage constraint", zap.Error(err))
		utils.ResponseConflict(w, "Request conflicted with a concurrent update, please retry")

	case errors.Is(err, domain.ErrStorageUnavailable):
		log.Error(operation+" failed - storage unavailable", zap.Error(err))
		utils.ResponseInternalError(w, "Service temporarily unavailable")

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeBody decodes a JSON body, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// validateBody writes 400 with field details when req fails its tags.
func validateBody(w http.ResponseWriter, req any) bool {
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

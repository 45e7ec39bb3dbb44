package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

// respondServiceError maps a service error onto the response envelope.
func respondServiceError(c *gin.Context, err error) {
	var nf *services.NotFoundError
	var ve *services.ValidationError
	var ce *services.ConflictError

	switch {
	case errors.As(err, &nf):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &ve):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &ce):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrTransactionFailure):
		utils.ErrorLogger.WithError(err).Error("transaction failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    false,
			"message":   "the change was not saved, please retry",
			"retryable": true,
		})
	default:
		utils.ErrorLogger.WithError(err).Error("unexpected error")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

// respondLookupError answers 404 for a missing row and 500 otherwise.
func respondLookupError(c *gin.Context, entity, code string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondServiceError(c, &services.NotFoundError{Entity: entity, Code: code})
		return
	}
	respondServiceError(c, err)
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"car-inventory-api/internal/constants"
	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/repository"
)

type CarHandler struct {
	store  repository.CarStore
	logger *zap.Logger
}

func NewCarHandler(store repository.CarStore, logger *zap.Logger) *CarHandler {
	return &CarHandler{
		store:  store,
		logger: logger,
	}
}

func (h *CarHandler) ListCars(c *gin.Context) {
	cars, err := h.store.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "Error listing cars", err)
		return
	}

	c.JSON(http.StatusOK, cars)
}

func (h *CarHandler) GetCar(c *gin.Context) {
	id, ok := h.requireID(c)
	if !ok {
		return
	}

	car, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Error fetching car", err)
		return
	}

	c.JSON(http.StatusOK, car)
}

func (h *CarHandler) CreateCar(c *gin.Context) {
	var input models.CarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn(fmt.Sprintf("%s Invalid JSON", constants.APIName()), zap.Error(err))
		h.respondError(c, "Invalid create payload", apperrors.NewJSONError(err))
		return
	}

	car, err := h.store.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "Error creating car", err)
		return
	}

	h.logger.Info(fmt.Sprintf("%s Created car", constants.APIName()), zap.String("car_id", car.ID))
	c.JSON(http.StatusCreated, car)
}

func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, ok := h.requireID(c)
	if !ok {
		return
	}

	var patch models.CarPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn(fmt.Sprintf("%s Invalid JSON", constants.APIName()), zap.Error(err))
		h.respondError(c, "Invalid update payload", apperrors.NewJSONError(err))
		return
	}

	car, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, "Error updating car", err)
		return
	}

	h.logger.Info(fmt.Sprintf("%s Updated car", constants.APIName()), zap.String("car_id", id))
	c.JSON(http.StatusOK, car)
}

func (h *CarHandler) DeleteCar(c *gin.Context) {
	id, ok := h.requireID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "Error deleting car", err)
		return
	}

	h.logger.Info(fmt.Sprintf("%s Deleted car", constants.APIName()), zap.String("car_id", id))
	c.JSON(http.StatusOK, gin.H{"message": constants.CarDeletedMessage})
}

func (h *CarHandler) requireID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.respondError(c, "Missing car ID", apperrors.NewValidationError("id", "Car ID is required"))
		return "", false
	}
	return id, true
}

// respondError writes the error body. Server-side failures are logged with
// their cause and answered with a generic message.
func (h *CarHandler) respondError(c *gin.Context, msg string, err error) {
	appErr := apperrors.FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error(fmt.Sprintf("%s %s", constants.APIName(), msg), zap.Error(err))
	} else {
		h.logger.Debug(fmt.Sprintf("%s %s", constants.APIName(), msg), zap.Error(err))
	}

	body := gin.H{
		"error":  appErr.Message,
		"status": appErr.StatusCode,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(appErr.StatusCode, body)
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/services"
)

var validate = validator.New()

func respond(c echo.Context, status int, message string) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}

func respondData(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

// callerID extracts the authenticated actor's id from the JWT claims.
func callerID(c echo.Context) (primitive.ObjectID, error) {
	hex, err := middleware.ExtractActorID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(hex)
}

// errorResponse maps service errors onto HTTP statuses. Pricing and
// hierarchy validation failures are 422, ledger conflicts are 409, and a
// broken parent chain is a 500 because it means the data itself is bad.
func errorResponse(c echo.Context, err error, fallback string) error {
	var floorErr *services.RateBelowFloorError

	switch {
	case errors.As(err, &floorErr):
		return respond(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNoRateConfigured),
		errors.Is(err, services.ErrChannelInactive),
		errors.Is(err, services.ErrNoSlabMatch),
		errors.Is(err, services.ErrOverlappingSlabs),
		errors.Is(err, services.ErrSlabBelowFloor),
		errors.Is(err, services.ErrNotDirectChild),
		errors.Is(err, services.ErrActorInactive):
		return respond(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrInvalidLedgerTransition),
		errors.Is(err, services.ErrDuplicateReference):
		return respond(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNotAuthorized):
		return respond(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrDataIntegrity):
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusInternalServerError, fallback)
}

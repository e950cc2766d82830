package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/middleware"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseUUIDParam reads a :id-style path parameter; writes the 400 itself.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

// callerID extracts the authenticated user's ID from the JWT claims, or
// uuid.Nil on unauthenticated routes.
func callerID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return uuid.Nil
	}
	claims, ok := v.(*middleware.JWTClaims)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// writeDomainError maps typed service errors onto HTTP statuses:
// scheduling conflicts and stock shortfalls are 409, bad transitions and
// no-op adjustments 400, everything else falls back to the given status.
func writeDomainError(c *gin.Context, err error, fallback int) {
	var transitionErr *service.InvalidTransitionError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrNotAvailable):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrOverRelease), errors.Is(err, service.ErrNoOpAdjustment):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		c.JSON(fallback, apierror.New(err.Error()))
	}
}

package handler

import (
	"errors"
	"net/http"
	"reflect"

	"stocksync/internal/apierror"
	"stocksync/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
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
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
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

// writeDomainError maps lifecycle errors to HTTP responses. Unknown errors
// become an opaque 500 — details stay in the logs.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, apierror.NewKind("not_found", err.Error()))
	case domain.IsConflict(err):
		c.JSON(http.StatusConflict, apierror.NewKind("invalid_transition", err.Error()))
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, apierror.NewKind("insufficient_stock", err.Error()))
	case errors.Is(err, domain.ErrMissingReason):
		c.JSON(http.StatusBadRequest, apierror.NewKind("missing_reason", err.Error()))
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, apierror.NewKind("invalid_quantity", err.Error()))
	case errors.Is(err, domain.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, apierror.NewKind("empty_batch", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("internal error"))
	}
}

package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report JSON/form field names instead of Go field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

func jsonMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, entity.Msg{Message: msg})
}

func fieldErrors(c *gin.Context, errs ...entity.FieldError) {
	c.JSON(http.StatusBadRequest, entity.ValidationErrors{Errors: errs})
}

// bindJSON decodes and validates the body into obj, answering 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fieldErrors(c, validationErrors(err)...)
		return false
	}
	return true
}

func validationErrors(err error) []entity.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]entity.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, entity.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []entity.FieldError{{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}}
	}
	return []entity.FieldError{{Field: "body", Message: "malformed JSON body"}}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid (" + fe.Tag() + ")"
}

// paramId parses the :id path parameter, answering 400 when it is not a
// positive integer.
func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		fieldErrors(c, entity.FieldError{Field: "id", Message: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}

// respondError maps a service error to its HTTP status.
func respondError(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		fieldErrors(c, entity.FieldError{Field: fe.Field, Message: fe.Message})
	case errors.Is(err, service.ErrNotFound):
		jsonMsg(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		jsonMsg(c, http.StatusConflict, "Already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		jsonMsg(c, http.StatusUnauthorized, "Wrong credentials")
	case errors.Is(err, service.ErrInvalidToken):
		jsonMsg(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, service.ErrForbidden):
		jsonMsg(c, http.StatusForbidden, "Not authorized")
	case errors.Is(err, service.ErrUpstream):
		logger.Warning("TCG API request failed:", err)
		jsonMsg(c, http.StatusBadGateway, "TCG API unreachable")
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		jsonMsg(c, http.StatusInternalServerError, "Internal server error")
	}
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// JSONSerializer is an echo.JSONSerializer backed by goccy/go-json.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var (
		ute *json.UnmarshalTypeError
		se  *json.SyntaxError
	)
	switch {
	case errors.As(err, &ute):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unmarshal type error: expected=%v, got=%v, field=%v", ute.Type, ute.Value, ute.Field)).SetInternal(err)
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	}
	return err
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct{ v *validator.Validate }

// NewValidator returns the process-wide validator.
func NewValidator() *Validator {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return &Validator{v: validate}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

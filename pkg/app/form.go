package app

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Maps() map[string]string {
	m := map[string]string{}
	for _, err := range v {
		m[err.Key] = err.Message
	}
	return m
}

// BindAndValid binds an HTTP request into obj and validates it.
func BindAndValid(c *gin.Context, obj any) (bool, ValidErrors) {
	var errs ValidErrors
	if err := c.ShouldBind(obj); err != nil {
		errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		return false, errs
	}
	return validateStruct(obj)
}

// BindJSONAndValid unmarshals a raw message payload into obj and
// validates it; the WebSocket variant of BindAndValid.
func BindJSONAndValid(data []byte, obj any) (bool, ValidErrors) {
	var errs ValidErrors
	if err := json.Unmarshal(data, obj); err != nil {
		errs = append(errs, &ValidError{Key: "body", Message: "invalid message format"})
		return false, errs
	}
	return validateStruct(obj)
}

func validateStruct(obj any) (bool, ValidErrors) {
	var errs ValidErrors
	if err := validate.Struct(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				errs = append(errs, &ValidError{
					Key:     fieldErr.Field(),
					Message: fieldErr.Error(),
				})
			}
		} else {
			errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		}
		return false, errs
	}
	return true, nil
}

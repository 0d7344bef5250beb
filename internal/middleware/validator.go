package middleware

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator so
// handlers can call c.Validate on bound request bodies. Field errors
// are reported under their JSON names.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        if name == "" {
            return f.Name
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

// ValidationMessage turns a Validate error into a client-facing message
// naming the first offending field. Other errors yield "invalid request body".
func ValidationMessage(err error) string {
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) || len(verrs) == 0 {
        return "invalid request body"
    }
    fe := verrs[0]
    field := fe.Field()
    switch fe.Tag() {
    case "required":
        return field + " is required"
    case "email":
        return field + " must be a valid email address"
    case "oneof":
        return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
    case "min":
        switch fe.Kind() {
        case reflect.Slice, reflect.Array, reflect.Map:
            return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
        case reflect.String:
            return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
        }
        return fmt.Sprintf("%s must be at least %s", field, fe.Param())
    }
    return field + " is invalid"
}

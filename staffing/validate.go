package staffing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so that field errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkInput runs the struct tags of in and converts failures into a
// workforce.ValidationError.
func checkInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &workforce.ValidationError{}
	for _, fe := range verrs {
		ve.Add(fe.Field(), validationErrorToText(fe))
	}
	return ve
}

func validationErrorToText(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("cannot be longer than %s", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "email":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	}
	return "is not valid"
}

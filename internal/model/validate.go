package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// validateStruct runs the struct tags and reports the first failure in the
// same "<kind> <field> is required" shape the hand-written checks use.
func validateStruct(kind Kind, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("%s %s is required", kind, fe.Field())
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Errorf("%s %s is invalid (%s)", kind, fe.Field(), rule)
}

// Validate checks any record type.
func Validate(r Record) error {
	switch v := r.(type) {
	case *Task:
		return v.Validate()
	case *Project:
		return v.Validate()
	case *Label:
		return v.Validate()
	case *Section:
		return v.Validate()
	}
	return fmt.Errorf("unsupported record %T", r)
}

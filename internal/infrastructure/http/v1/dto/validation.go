package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/documents/purchase"
)

// SetupValidator registers custom tags on gin's validator and reports
// fields by their JSON (or form) name.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return v.RegisterValidation("paymentmethod", validatePaymentMethod)
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	_, ok := purchase.ParseMethod(fl.Field().String())
	return ok
}

// ValidationError converts a binding failure into a VALIDATION_ERROR with
// one entry per offending field.
func ValidationError(message string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(message)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.WithDetail("error", err.Error())
	}
	for _, fe := range verrs {
		appErr = appErr.WithField(fieldPath(fe), fieldMessage(fe))
	}
	return appErr
}

// fieldPath drops the struct name: "CreateSaleRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "uuid":
		return "must be a UUID"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "at least " + fe.Param() + " item(s) required"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "paymentmethod":
		return "must be one of: CASH, CREDITCARD, TRANSFER, QRIS"
	}
	return "failed " + fe.Tag() + " check"
}

package http

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator devuelve el validador compartido, con nombres de campo tomados del tag json.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterStructValidation(movementTargetValidation, dto.RegisterMovementRequest{})
	})
	return validate
}

// movementTargetValidation exige location_id, o from/to_location_id en TRANSFER.
func movementTargetValidation(sl validator.StructLevel) {
	in := sl.Current().Interface().(dto.RegisterMovementRequest)
	if in.Type == "TRANSFER" {
		if in.FromLocationID == "" {
			sl.ReportError(in.FromLocationID, "from_location_id", "FromLocationID", "required", "")
		}
		if in.ToLocationID == "" {
			sl.ReportError(in.ToLocationID, "to_location_id", "ToLocationID", "required", "")
		}
		return
	}
	if in.LocationID == "" {
		sl.ReportError(in.LocationID, "location_id", "LocationID", "required", "")
	}
}

// validateStruct valida y devuelve los campos con error (campo → regla), o nil.
func validateStruct(v any) map[string]string {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			fields[e.Field()] = e.Tag()
		}
		return fields
	}
	fields["body"] = err.Error()
	return fields
}

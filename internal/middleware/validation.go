package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/meditracker-api/internal/model"
)

var registerOnce sync.Once

// RegisterValidators installs the domain tags on gin's validator and makes
// it report JSON field names. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		for tag, fn := range map[string]validator.Func{
			"weekday":     validWeekday,
			"hhmm":        validTimeOfDay,
			"iana_tz":     validTimeZone,
			"dosage_unit": validDosageUnit,
		} {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func validWeekday(fl validator.FieldLevel) bool {
	_, err := model.ParseDayOfWeek(fl.Field().String())
	return err == nil
}

func validTimeOfDay(fl validator.FieldLevel) bool {
	_, err := model.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// validTimeZone only checks the shape; resolution is up to the service.
func validTimeZone(fl validator.FieldLevel) bool {
	return model.ValidateTimeZone(fl.Field().String(), false) == nil
}

func validDosageUnit(fl validator.FieldLevel) bool {
	_, err := model.ParseDosageUnit(fl.Field().String())
	return err == nil
}

package historyform

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

type nowKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notfuture rejects dates after the calendar day of the time carried in the context.
	if err := v.RegisterValidationCtx("notfuture", func(ctx context.Context, fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		now, ok := ctx.Value(nowKey{}).(time.Time)
		if !ok {
			now = time.Now()
		}
		return !weather.NewDate(t).After(weather.NewDate(now).Time)
	}); err != nil {
		panic(err)
	}
	// wholenumber rejects fractions; the server stores whole degrees.
	if err := v.RegisterValidation("wholenumber", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 {
			return false
		}
		n := f.Float()
		return n == math.Trunc(n)
	}); err != nil {
		panic(err)
	}
	return v
}

var labels = map[Field]string{
	FieldSensorID:        "Sensor ID",
	FieldRecordDate:      "Record Date",
	FieldRainfallSum:     "Rainfall",
	FieldSnowfallSum:     "Snowfall",
	FieldSunrise:         "Sunrise",
	FieldSunset:          "Sunset",
	FieldTemperatureMean: "Temperature Mean",
	FieldTemperatureMin:  "Temperature Min",
	FieldTemperatureMax:  "Temperature Max",
	FieldWindDirection:   "Wind Direction",
	FieldWindSpeedMax:    "Max Wind Speed",
}

var ranges = map[Field]string{
	FieldRainfallSum:     "0 and 100",
	FieldSnowfallSum:     "0 and 100",
	FieldTemperatureMean: "-50 and 50",
	FieldTemperatureMin:  "-50 and 50",
	FieldTemperatureMax:  "-50 and 50",
	FieldWindDirection:   "0 and 360",
	FieldWindSpeedMax:    "0 and 100",
}

// Label is the display name of a field.
func Label(f Field) string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// Validation is the outcome of validating a draft.
type Validation struct {
	// Errors holds the error text of every field that is set but invalid.
	Errors map[Field]string
	// Missing lists the unset required fields in form order.
	Missing []Field
}

// Submittable reports whether the draft may be submitted.
func (v Validation) Submittable() bool {
	return len(v.Errors) == 0 && len(v.Missing) == 0
}

// Messages returns the error text of every failing field, missing ones included.
func (v Validation) Messages() map[Field]string {
	out := make(map[Field]string, len(v.Errors)+len(v.Missing))
	for f, msg := range v.Errors {
		out[f] = msg
	}
	for _, f := range v.Missing {
		out[f] = requiredText(f)
	}
	return out
}

// ValidationError is returned by Submit for a draft that is not submittable.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[Field(k)])
	}
	return "invalid history: " + strings.Join(parts, " ")
}

// Validate checks d as of now. It has no side effects.
func Validate(d Draft, now time.Time) Validation {
	result := Validation{Errors: map[Field]string{}}

	ctx := context.WithValue(context.Background(), nowKey{}, now)
	err := validate.StructCtx(ctx, d)
	if err == nil {
		return result
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		// Only an invalid argument gets here, which a Draft value never is.
		panic(err)
	}
	for _, fe := range errs {
		field := Field(fe.Field())
		if fe.Tag() == "required" {
			result.Missing = append(result.Missing, field)
			continue
		}
		result.Errors[field] = errorText(field, fe.Tag())
	}
	return result
}

func requiredText(f Field) string {
	return Label(f) + " is a required field!"
}

func errorText(f Field, tag string) string {
	switch tag {
	case "notfuture":
		return Label(f) + " must not be in the future!"
	case "datetime":
		return Label(f) + " must be a time of day (HH:mm)!"
	case "wholenumber":
		return Label(f) + " must be a whole number!"
	}
	if r, ok := ranges[f]; ok {
		return fmt.Sprintf("%s is a required field (between %s)!", Label(f), r)
	}
	return Label(f) + " is invalid!"
}

package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			_, err := crime.ParseCategory(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// routeRequest is the parsed query string of the route endpoints.
type routeRequest struct {
	FromLat   float64 `validate:"latitude"`
	FromLng   float64 `validate:"longitude"`
	ToLat     float64 `validate:"latitude"`
	ToLng     float64 `validate:"longitude"`
	Period    string  `validate:"required,max=32"`
	Category  string  `validate:"omitempty,category"`
	HourStart *int    `validate:"omitempty,min=0,max=23"`
	HourEnd   *int    `validate:"omitempty,min=0,max=23"`
}

// fieldErrors maps request field names to failed validation tags.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, tag := range f {
		parts = append(parts, fmt.Sprintf("%s failed %s", field, tag))
	}
	return strings.Join(parts, "; ")
}

func (r *routeRequest) validate() error {
	err := validatorInstance().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := fieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func (r *routeRequest) query() route.Query {
	// Category was checked by validate.
	cat, _ := crime.ParseCategory(r.Category)
	q := route.Query{
		Start:    region.Point{Lat: r.FromLat, Lng: r.FromLng},
		End:      region.Point{Lat: r.ToLat, Lng: r.ToLng},
		Period:   r.Period,
		Category: cat,
	}
	if r.HourStart != nil && r.HourEnd != nil {
		q.Window = &route.HourWindow{Start: *r.HourStart, End: *r.HourEnd}
	}
	return q
}

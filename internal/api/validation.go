package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator
// engine and makes errors report JSON field names.
func RegisterValidators() {
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
		_ = v.RegisterValidation("objectid", validateObjectID)
		_ = v.RegisterValidation("weekday", validateWeekday)
		_ = v.RegisterValidation("sessions", validateSessions)
	})
}

func validateObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := domain.ParseWeekday(fl.Field().String())
	return ok
}

func validateSessions(fl validator.FieldLevel) bool {
	return domain.ValidSessionsPerWeek(int(fl.Field().Int()))
}

// validationMessage renders binding failures as a readable field list.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		messages := make([]string, 0, len(ve))
		for _, fe := range ve {
			messages = append(messages, fieldMessage(fe))
		}
		return "Validation error: " + strings.Join(messages, "; ")
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Validation error: %s has the wrong type", typeErr.Field)
	case errors.As(err, &syntaxErr):
		return "Validation error: malformed JSON body"
	}
	return "Validation error: " + err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "objectid":
		return field + " must be a valid id"
	case "weekday":
		return field + " must be an English weekday name"
	case "sessions":
		return field + " must be 3, 4 or 5"
	default:
		return field + " is invalid"
	}
}

// bindJSON binds the request body into obj and answers 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		abortWithError(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// dateLayout is the calendar date format used by query strings and bodies.
const dateLayout = "2006-01-02"

// Date accepts "YYYY-MM-DD" (in the server's location) or RFC 3339.
type Date struct {
	time.Time
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.In(time.Local), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// queryDate parses an optional date query parameter.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+": expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/employee-api/internal/domain"
	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

var phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks every field constraint, collecting all violations into a
// single VALIDATION_FAILED error, and on success maps the request to the
// service input with the hire date parsed.
func (r *EmployeeRequest) Validate() (domain.EmployeeInput, error) {
	fieldErrors := map[string]any{}

	if err := validate.Struct(r); err != nil {
		var violations validator.ValidationErrors
		if !errors.As(err, &violations) {
			return domain.EmployeeInput{}, apperrors.NewInternalError(err)
		}
		for _, violation := range violations {
			field := violation.Field()
			if _, seen := fieldErrors[field]; !seen {
				fieldErrors[field] = violationMessage(violation)
			}
		}
	}

	var hireDate time.Time
	if r.HireDate != "" {
		parsed, err := time.Parse(hireDateLayout, r.HireDate)
		switch {
		case err != nil:
			fieldErrors["hireDate"] = "Hire date must be a valid date in format YYYY-MM-DD"
		case parsed.After(today()):
			fieldErrors["hireDate"] = "Hire date must be in the past or present"
		default:
			hireDate = parsed
		}
	}

	if len(fieldErrors) > 0 {
		return domain.EmployeeInput{}, apperrors.NewValidationError("Validation failed", fieldErrors)
	}

	var salary float64
	if r.Salary != nil {
		salary = *r.Salary
	}
	return domain.EmployeeInput{
		Name:       r.Name,
		Position:   r.Position,
		Department: r.Department,
		Salary:     salary,
		Email:      r.Email,
		Phone:      r.Phone,
		HireDate:   hireDate,
	}, nil
}

// today is the current calendar day at date-only precision, in the same
// location the wire format parses into.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func violationMessage(violation validator.FieldError) string {
	label := fieldLabel(violation.Field())
	switch violation.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min", "max":
		return fmt.Sprintf("%s must be between %s and %s characters",
			label, boundFor(violation.Field(), "min"), boundFor(violation.Field(), "max"))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, violation.Param())
	case "email":
		return "Email should be valid"
	case "phone":
		return "Phone number should be valid"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func fieldLabel(field string) string {
	switch field {
	case "name":
		return "Name"
	case "position":
		return "Position"
	case "department":
		return "Department"
	case "salary":
		return "Salary"
	case "email":
		return "Email"
	case "phone":
		return "Phone"
	case "hireDate":
		return "Hire date"
	default:
		return field
	}
}

func boundFor(field, bound string) string {
	limits := map[string][2]string{
		"name":       {"2", "100"},
		"position":   {"2", "100"},
		"department": {"2", "50"},
	}
	pair, ok := limits[field]
	if !ok {
		return ""
	}
	if bound == "min" {
		return pair[0]
	}
	return pair[1]
}

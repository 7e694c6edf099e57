package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"studyhub/internal/domain"
)

var studyPathPattern = regexp.MustCompile(`^[ㄱ-ㅎ가-힣a-z0-9_-]{2,20}$`)

// newValidator returns a validator that reports JSON field names and knows the studypath tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("studypath", func(fl validator.FieldLevel) bool {
		return studyPathPattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors converts validator output into domain field errors.
func fieldErrors(err error) []domain.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldError{{Field: "body", Code: "invalid", Message: err.Error()}}
	}
	out := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: tagMessage(fe),
		})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a UUID"
	case "studypath":
		return "must be 2-20 lowercase letters, digits, Korean, '-' or '_'"
	default:
		return "is invalid"
	}
}

// formValidator checks study and event forms: struct tags first, then the
// cross-field schedule rules.
type formValidator struct {
	v *validator.Validate
}

func newFormValidator() *formValidator {
	return &formValidator{v: newValidator()}
}

func (f *formValidator) study(form *domain.StudyForm) []domain.FieldError {
	if err := f.v.Struct(form); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// event validates a new or edited event form against now.
func (f *formValidator) event(form *domain.EventForm, now time.Time) []domain.FieldError {
	if err := f.v.Struct(form); err != nil {
		return fieldErrors(err)
	}
	var errs []domain.FieldError
	if !form.EndEnrollmentAt.After(now) {
		errs = append(errs, domain.FieldError{
			Field: "end_enrollment_at", Code: "wrong.datetime",
			Message: "enrollment must close in the future",
		})
	}
	if form.EndAt.Before(form.StartAt) || form.EndAt.Before(form.EndEnrollmentAt) {
		errs = append(errs, domain.FieldError{
			Field: "end_at", Code: "wrong.datetime",
			Message: "event must end after it starts and after enrollment closes",
		})
	}
	if form.StartAt.Before(form.EndEnrollmentAt) {
		errs = append(errs, domain.FieldError{
			Field: "start_at", Code: "wrong.datetime",
			Message: "event must start after enrollment closes",
		})
	}
	return errs
}

// eventUpdate adds the rules that depend on the current ledger.
func (f *formValidator) eventUpdate(form *domain.EventForm, ev *domain.Event, now time.Time) []domain.FieldError {
	errs := f.event(form, now)
	if form.Type != "" && form.Type != ev.Type {
		errs = append(errs, domain.FieldError{
			Field: "event_type", Code: "wrong.value",
			Message: "event type cannot be changed",
		})
	}
	if form.LimitOfEnrollments < ev.NumberOfAcceptedEnrollments() {
		errs = append(errs, domain.FieldError{
			Field: "limit_of_enrollments", Code: "wrong.value",
			Message: "limit must not be below the number of accepted enrollments",
		})
	}
	return errs
}

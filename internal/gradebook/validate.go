package gradebook

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their document names (firstName, not FirstName).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// StudentInput is the payload of CreateStudent.
type StudentInput struct {
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastInitial   string `json:"lastInitial" validate:"required,max=10"`
	StudentNumber string `json:"studentNumber" validate:"max=50"`
	Gender        string `json:"gender" validate:"max=30"`
}

func (in *StudentInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastInitial = strings.ToUpper(strings.TrimSpace(in.LastInitial))
	in.StudentNumber = strings.TrimSpace(in.StudentNumber)
	in.Gender = strings.TrimSpace(in.Gender)
}

// StudentUpdate changes the fields that are non-nil.
type StudentUpdate struct {
	FirstName     *string `json:"firstName" validate:"omitempty,max=100"`
	LastInitial   *string `json:"lastInitial" validate:"omitempty,max=10"`
	StudentNumber *string `json:"studentNumber" validate:"omitempty,max=50"`
	Gender        *string `json:"gender" validate:"omitempty,max=30"`
}

func (u *StudentUpdate) normalize() error {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.FirstName)
	trim(u.LastInitial)
	trim(u.StudentNumber)
	trim(u.Gender)
	if u.LastInitial != nil {
		*u.LastInitial = strings.ToUpper(*u.LastInitial)
	}
	if u.FirstName != nil && *u.FirstName == "" {
		return invalid("firstName", "is required")
	}
	if u.LastInitial != nil && *u.LastInitial == "" {
		return invalid("lastInitial", "is required")
	}
	return nil
}

// AssessmentInput is the payload of CreateAssessment. GradeFormat defaults to percentage.
type AssessmentInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Subject     string      `json:"subject" validate:"max=100"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	GradeFormat GradeFormat `json:"gradeFormat" validate:"omitempty,oneof=percentage letter rubric achieved custom"`
}

func (in *AssessmentInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Date = strings.TrimSpace(in.Date)
	in.GradeFormat = GradeFormat(strings.ToLower(strings.TrimSpace(string(in.GradeFormat))))
	if in.GradeFormat == "" {
		in.GradeFormat = FormatPercentage
	}
}

type textInput struct {
	Text string `json:"text" validate:"required"`
}

type personalInput struct {
	Category Category `json:"category" validate:"required,oneof=behaviour events social interests extracurricular"`
	Text     string   `json:"text" validate:"required"`
}

type statusInput struct {
	Status Status `json:"status" validate:"omitempty,oneof=well-above above at-standard below well-below not-evident"`
}

type pinInput struct {
	PIN string `json:"pin" validate:"required,min=4,max=32"`
}

type endpointInput struct {
	ScriptURL string `json:"scriptUrl" validate:"omitempty,http_url"`
}

// check runs the struct tags and turns the first failure into a *ValidationError.
func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: tagMessage(fe)}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD form"
	case "http_url":
		return "must be an absolute http(s) URL"
	}
	return "failed " + fe.Tag() + " check"
}

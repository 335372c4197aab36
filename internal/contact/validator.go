package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxSubjectLength = 200
	MaxMessageLength = 2000
)

var fieldOrder = []string{"name", "email", "message", "subject"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Input is the raw contact form payload. Field order is the order in which
// violations are reported.
type Input struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,basicemail"`
	Message string `json:"message" validate:"required,max=2000"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in Input) Trimmed() Input {
	return Input{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: strings.TrimSpace(in.Message),
		Subject: strings.TrimSpace(in.Subject),
	}
}

// Validator checks presence, format and length of every field and reports
// all violations at once.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("basicemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate returns one message per violated rule, ordered name, email,
// message, subject. An empty result means the input is acceptable.
func (v *Validator) Validate(in Input) []string {
	in = in.Trimmed()
	byField := make(map[string][]string, len(fieldOrder))

	if err := v.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []string{"submission could not be validated"}
		}
		for _, fe := range fieldErrs {
			field := strings.ToLower(fe.Field())
			byField[field] = append(byField[field], describe(fe))
		}
	}

	// checked apart from the struct tags so it is still reported after a
	// format violation
	if err := v.validate.Var(in.Email, fmt.Sprintf("max=%d", MaxEmailLength)); err != nil {
		byField["email"] = append(byField["email"],
			fmt.Sprintf("email must be at most %d characters", MaxEmailLength))
	}

	var messages []string
	for _, field := range fieldOrder {
		messages = append(messages, byField[field]...)
	}
	return messages
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "basicemail":
		return field + " is not a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

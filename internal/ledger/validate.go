package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/treasurer/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// notblank: the string has at least one non-whitespace character
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// StudentFields are the editable fields of a student.
type StudentFields struct {
	FirstName     string `validate:"notblank"`
	MiddleInitial string `validate:"max=1"`
	LastName      string `validate:"notblank"`
	Section       string `validate:"notblank"`
}

// normalize trims every field, uppercases the section and reduces the middle
// initial to an uppercase letter without a trailing dot.
func (f StudentFields) normalize() StudentFields {
	return StudentFields{
		FirstName:     strings.TrimSpace(f.FirstName),
		MiddleInitial: strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(f.MiddleInitial), ".")),
		LastName:      strings.TrimSpace(f.LastName),
		Section:       strings.ToUpper(strings.TrimSpace(f.Section)),
	}
}

// CategoryFields are the editable fields of a category.
type CategoryFields struct {
	Name         string `validate:"notblank"`
	Description  string
	TargetAmount float64 `validate:"gte=0"`
}

func (f CategoryFields) normalize() CategoryFields {
	return CategoryFields{
		Name:         strings.TrimSpace(f.Name),
		Description:  strings.TrimSpace(f.Description),
		TargetAmount: f.TargetAmount,
	}
}

// validateStruct runs the struct validator and converts failures into
// models.ErrValidation with a readable message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " character"
	case "gte":
		return fe.Field() + " must not be negative"
	default:
		return fe.Field() + " is invalid"
	}
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", models.ErrValidation)
	}
	return nil
}

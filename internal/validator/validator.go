package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ToValidationErrors maps go-playground field errors onto ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	return apperrors.ToValidationErrors(err)
}

// Validator combines struct tag validation with the document rules tags cannot express
type Validator struct {
	structValidator   *validator.Validate
	documentValidator *DocumentValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		documentValidator: NewDocumentValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// ValidateDocument performs complete validation of a quiz document (struct + uniqueness rules).
// The returned error is always ValidationErrors.
func (v *Validator) ValidateDocument(doc *models.QuizDocument) error {
	if err := v.ValidateStruct(doc); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return ValidationErrors{{Field: "document", Message: err.Error()}}
	}

	if errs := v.documentValidator.Validate(doc); len(errs) > 0 {
		return errs
	}

	return nil
}

// Document returns the document rule validator
func (v *Validator) Document() *DocumentValidator {
	return v.documentValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.MultipleChoice,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

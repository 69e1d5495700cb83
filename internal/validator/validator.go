package validator

import (
	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with question content validation.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates the centralized validator instance with all custom tag
// validators registered once.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs complete validation: struct tags first, then
// type-specific question content.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		return err
	}
	if q, ok := s.(*models.Question); ok {
		return v.questionValidator.ValidateQuestion(q)
	}
	return nil
}

// Question returns the question content validator.
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("form_type", validateFormType)
	validate.RegisterValidation("maturity_level", validateMaturityLevel)
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateFormType(fl validator.FieldLevel) bool {
	return models.FormType(fl.Field().String()).Valid()
}

func validateMaturityLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	if level == "" {
		return true
	}
	for _, band := range models.DefaultMaturityBands {
		if band.Level == level {
			return true
		}
	}
	return false
}

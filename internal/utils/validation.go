package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct using its `validate` tags and returns the
// first validation failure wrapped as an AppError.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return NewAppErrorWithCause(
				ErrorCodeValidationFailed,
				SeverityWarn,
				"Validation failed",
				first.Field()+" failed on the '"+first.Tag()+"' rule",
				err,
			)
		}
		return WrapError(err, "validation failed")
	}
	return nil
}

// IsCourseNameValid reports whether a course name is non-empty after trimming
// and within the column limit.
func IsCourseNameValid(name string) bool {
	return validate.Var(name, "required,min=1,max=255") == nil
}

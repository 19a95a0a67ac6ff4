package config

import (
	"github.com/go-playground/validator/v10"
)

// knownEncodings lists the tokenizer encodings the budget estimator can
// load. Keep in sync with the encodings shipped by tiktoken-go.
var knownEncodings = map[string]struct{}{
	"cl100k_base": {},
	"o200k_base":  {},
	"p50k_base":   {},
	"p50k_edit":   {},
	"r50k_base":   {},
}

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("encoding_name", validateEncodingName)
}

// validateEncodingName validates tokenizer encoding identifiers
func validateEncodingName(fl validator.FieldLevel) bool {
	encoding := fl.Field().String()
	if encoding == "" {
		return false
	}
	_, ok := knownEncodings[encoding]
	return ok
}

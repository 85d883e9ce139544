// Package validation checks configuration structs and request input.
//
// Struct tags cover configuration:
//
//	type Config struct {
//	    Endpoint string `validate:"required,url"`
//	    Language string `validate:"omitempty,bcp47_language_tag"`
//	}
//	err := validation.Validate(cfg)
//
// The builder collects field errors for request input:
//
//	err := validation.New().
//	    MaxLength("language", lang, 35).
//	    OptionalUUID("request_id", id).
//	    Validate()
//
// Both return *errors.AppError with code INVALID_INPUT and the failing
// fields under Details["fields"].
package validation

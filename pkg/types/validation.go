package types

type ValidationStatus string

const (
	ValidationPassed ValidationStatus = "PASSED"
	ValidationFailed ValidationStatus = "FAILED"
)

type ValidationResult struct {
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
}

func Passed() ValidationResult {
	return ValidationResult{Status: ValidationPassed}
}

func Failed(message string) ValidationResult {
	return ValidationResult{Status: ValidationFailed, Message: message}
}

func (r ValidationResult) IsFailed() bool {
	return r.Status == ValidationFailed
}

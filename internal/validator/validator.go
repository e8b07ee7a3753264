package validator

import (
	"context"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// Validator is a read-only pre-flight check.
type Validator interface {
	Name() string
	Validate(ctx context.Context) types.ValidationResult
}

type Chain struct {
	validators []Validator
	logger     *logger.Logger
}

func NewChain(log *logger.Logger, validators ...Validator) *Chain {
	return &Chain{validators: validators, logger: log}
}

func (c *Chain) Len() int {
	return len(c.validators)
}

// Run evaluates the validators in order and stops at the first failure. It
// returns the name of the failing validator with its result.
func (c *Chain) Run(ctx context.Context) (string, types.ValidationResult) {
	for _, v := range c.validators {
		result := v.Validate(ctx)
		if result.IsFailed() {
			c.logger.Error("validation_failed").
				Str("validator", v.Name()).
				Str("reason", result.Message).
				Send()
			return v.Name(), result
		}

		c.logger.Debug("validation_passed").
			Str("validator", v.Name()).
			Send()
	}

	return "", types.Passed()
}

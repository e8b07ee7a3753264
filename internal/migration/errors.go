package migration

import (
	"errors"
	"fmt"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

type Kind string

const (
	KindConfig     Kind = "config"
	KindIdentity   Kind = "identity"
	KindValidation Kind = "validation"
	KindTransfer   Kind = "transfer"
	KindMetadata   Kind = "metadata"
	KindCatalog    Kind = "catalog"
	KindInternal   Kind = "internal"
)

// Exit statuses, one per error kind.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitConfig     = 2
	ExitIdentity   = 3
	ExitValidation = 4
	ExitTransfer   = 5
	ExitMetadata   = 6
	ExitCatalog    = 7
)

type Error struct {
	Kind    Kind
	Op      types.Operation
	Project string
	Phase   types.Phase
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s failed in %s (%s error): %v", e.Op, e.Project, e.Phase, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError carries the user-facing reason of a failed pre-flight check.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s failed: %s", e.Validator, e.Message)
}

func NewConfigError(err error) *Error {
	return &Error{Kind: KindConfig, Phase: types.PhaseConfiguring, Err: err}
}

// NewCatalogError marks a runtime catalog run that could not even start.
func NewCatalogError(err error) *Error {
	return &Error{Kind: KindCatalog, Err: err}
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindConfig:
		return ExitConfig
	case KindIdentity:
		return ExitIdentity
	case KindValidation:
		return ExitValidation
	case KindTransfer:
		return ExitTransfer
	case KindMetadata:
		return ExitMetadata
	case KindCatalog:
		return ExitCatalog
	default:
		return ExitInternal
	}
}

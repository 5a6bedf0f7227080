package tablefsm

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeConfiguration             = "FSM_CONFIGURATION"
	ErrCodeMissingStateConfiguration = "FSM_MISSING_STATE_CONFIGURATION"
	ErrCodeUnknownTrigger            = "FSM_UNKNOWN_TRIGGER"
	ErrCodeMachineClosed             = "FSM_MACHINE_CLOSED"
)

var (
	// ErrConfiguration is raised at registration time, before any machine exists
	ErrConfiguration = apperrors.New("invalid state configuration", apperrors.CategoryValidation).
				WithTextCode(ErrCodeConfiguration)
	// ErrMissingStateConfiguration is raised when the initial or a destination state has no table
	ErrMissingStateConfiguration = apperrors.New("missing state configuration", apperrors.CategoryBadInput).
					WithTextCode(ErrCodeMissingStateConfiguration)
	// ErrUnknownTrigger is raised when nothing in the current state matches the event
	ErrUnknownTrigger = apperrors.New("unknown trigger", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeUnknownTrigger)
	// ErrMachineClosed is returned by Fire after Close
	ErrMachineClosed = apperrors.New("machine closed", apperrors.CategoryConflict).
				WithTextCode(ErrCodeMachineClosed)
)

func configurationError[S State](state S, format string, args ...any) error {
	return cloneError(ErrConfiguration, fmt.Sprintf("state [%v]: %s", state, fmt.Sprintf(format, args...)), map[string]any{
		"state": fmt.Sprint(state),
	})
}

func missingStateError[S State](state S) error {
	return cloneError(ErrMissingStateConfiguration, fmt.Sprintf("state [%v] has no configuration", state), map[string]any{
		"state": fmt.Sprint(state),
	})
}

func unknownTriggerError[S State, E comparable](state S, in input[E]) error {
	return cloneError(ErrUnknownTrigger, fmt.Sprintf("state [%v] is not configured for trigger [%s]", state, in), map[string]any{
		"state":   fmt.Sprint(state),
		"trigger": in.String(),
	})
}

func cloneError(base *apperrors.Error, message string, metadata map[string]any) *apperrors.Error {
	err := base.Clone()
	err.Message = message
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func errorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// IsConfigurationError reports whether err is a registration conflict
func IsConfigurationError(err error) bool {
	return errorCode(err) == ErrCodeConfiguration
}

// IsMissingStateConfiguration reports whether err names a state without a table
func IsMissingStateConfiguration(err error) bool {
	return errorCode(err) == ErrCodeMissingStateConfiguration
}

// IsUnknownTrigger reports whether err is an unmatched event
func IsUnknownTrigger(err error) bool {
	return errorCode(err) == ErrCodeUnknownTrigger
}

// IsMachineClosed reports whether err comes from a closed machine
func IsMachineClosed(err error) bool {
	return errorCode(err) == ErrCodeMachineClosed
}

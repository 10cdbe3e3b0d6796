package claimhooks

import "fmt"

// HookError reports a failure while building or assembling hooks
type HookError struct {
	Code    string `json:"code"`
	Hook    string `json:"hook,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *HookError) Error() string {
	if e.Hook != "" {
		return fmt.Sprintf("%s: %s hook: %s", e.Code, e.Hook, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeBuildFailed     = "hook_build_failed"
	ErrCodeInvalidHook     = "invalid_hook"
	ErrCodeSerializeFailed = "app_data_serialize_failed"
	ErrCodeInvalidAppData  = "invalid_app_data"
	ErrCodeNoHookBuilders  = "no_hook_builders"
	ErrCodeNoPublisher     = "no_publisher"
)

// NewHookError creates a new hook error
func NewHookError(code, hook string, err error) *HookError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &HookError{
		Code:    code,
		Hook:    hook,
		Message: msg,
		Err:     err,
	}
}

package internal

// Result is the uniform outcome returned at the action boundary. Data is only
// meaningful when Success is true; Error and Kind only when it is false.
type Result[T any] struct {
	Success bool      `json:"success"`
	Data    *T        `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorType `json:"kind,omitempty"`
	Code    ErrorCode `json:"code,omitempty"`
	Details any       `json:"details,omitempty"`
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

// Fail converts err into a failed result. Errors that are not an AppError are
// reported as a generic internal failure so no store detail reaches the caller.
func Fail[T any](err error) Result[T] {
	appErr, ok := IsAppError(err)
	if !ok || appErr == nil {
		return Result[T]{
			Error: "internal server error",
			Kind:  ErrorTypeInternal,
			Code:  ErrCodeInternal,
		}
	}
	return Result[T]{
		Error:   appErr.GetDetailedMessage(),
		Kind:    appErr.Type,
		Code:    appErr.Code,
		Details: appErr.Details,
	}
}

func ResultOf[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(data)
}

// Status is the HTTP status matching the result.
func (r Result[T]) Status(successStatus int) int {
	if r.Success {
		return successStatus
	}
	return StatusFor(r.Kind)
}

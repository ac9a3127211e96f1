package consts

import "errors"

var (
	ErrDateRangeRequired  = errors.New("at least one of start or stop is required")
	ErrUnknownOperation   = errors.New("unknown administrative operation")
	ErrUnknownStrategy    = errors.New("unknown load strategy")
	ErrMissingQueueID     = errors.New("record has no queue id")
	ErrCommandFailed      = errors.New("external command failed")
	ErrContentUnavailable = errors.New("queue file content unavailable")
)

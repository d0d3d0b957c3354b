package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotAuthorized      = fmt.Errorf("not authorized")
	ErrMeetingIDRequired  = fmt.Errorf("meetingId required")
	ErrTargetRequired     = fmt.Errorf("socketId required")
	ErrRecipientRequired  = fmt.Errorf("to required")
	ErrUnknownMessageType = fmt.Errorf("unknown message type")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

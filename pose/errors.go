package pose

import "errors"

var (
	ErrUnknownPolicy = errors.New("pose: unknown serialization policy")
	ErrUnknownJoint  = errors.New("pose: unknown joint")
	ErrSideMismatch  = errors.New("pose: update is for the other hand")
)

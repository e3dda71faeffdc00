package bt

import "errors"

var (
	ErrInvalidStatus    = errors.New("invalid status")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrUnknownNodeRef   = errors.New("unknown node reference")
	ErrUnknownCondition = errors.New("unknown condition")
	ErrUnknownAction    = errors.New("unknown action")
	ErrUnknownSensor    = errors.New("unknown sensor")
	ErrMissingRoot      = errors.New("config has no root")
	ErrMissingChild     = errors.New("node requires a child")
	ErrConfigCycle      = errors.New("config contains a cycle")
	ErrDuplicateSibling = errors.New("duplicate sibling name")
	ErrBadParams        = errors.New("invalid node params")
)

package subscription

import "errors"

var (
	ErrNotFound     = errors.New("subscription not found")
	ErrItemNotFound = errors.New("subscription item not found")
	ErrSaveFailed   = errors.New("failed to save subscription")
	ErrLoadFailed   = errors.New("failed to load subscription")
)

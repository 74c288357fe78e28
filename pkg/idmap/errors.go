package idmap

import "errors"

var (
	ErrInvalidMapping = errors.New("identity mapping requires entity type, provider and both ids")
	ErrStoreFailed    = errors.New("failed to store identity mapping")
	ErrLookupFailed   = errors.New("failed to look up identity mapping")
)

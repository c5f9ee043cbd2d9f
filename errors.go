package vaultenv

import "errors"

var (
	// ErrConfigMissing means a required setting (store address, token, ...) is absent.
	ErrConfigMissing = errors.New("configuration missing")
	// ErrAuthFailed means the backing store rejected our credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrKeyNotFound is returned by UpdateKey, DeleteKey and GetKey for an absent key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrValidation marks a request that is missing required fields.
	ErrValidation = errors.New("validation error")
	// ErrStoreUnavailable wraps unexpected failures talking to the backing store.
	ErrStoreUnavailable = errors.New("secret store unavailable")
)

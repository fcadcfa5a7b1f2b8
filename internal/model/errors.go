package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrTagTaken        = errors.New("battle tag is already taken")
	ErrMalformedTag    = errors.New("malformed battle tag")

	// Game account errors
	ErrGameAccountNotFound = errors.New("game account not found")
	ErrGameAccountExists   = errors.New("game account already exists")

	// Toon errors
	ErrToonNotFound = errors.New("toon not found")

	// Presence errors
	ErrVariantType    = errors.New("variant holds a different type")
	ErrUnknownEntity  = errors.New("entity id does not name a known entity")
	ErrSessionNotLive = errors.New("game account has no attached session")
)

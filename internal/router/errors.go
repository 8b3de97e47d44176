package router

import "errors"

var (
	// ErrNoRepository means neither the query nor the configuration names a repository
	ErrNoRepository = errors.New("no repository specified and no default repository configured")
	// ErrRecordNotFound ends an unsuccessful by-number scan
	ErrRecordNotFound = errors.New("record not found in accessible repositories")
	// ErrTicketNotFound is reported when the tracker returns no ticket for a key
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrProviderMissing is reported for a provider that was never configured
	ErrProviderMissing = errors.New("provider not configured")
)

package docs

import "errors"

var (
	ErrNoFiles            = errors.New("no documents available")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrInvalidName        = errors.New("invalid document name")
	ErrNotFound           = errors.New("document not found")
	ErrUnknownBackend     = errors.New("unknown document backend")
	ErrMissingCredentials = errors.New("blob backend needs documents.connection_string or documents.account_url")
)

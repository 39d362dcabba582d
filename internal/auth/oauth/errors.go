package oauth

import "errors"

var (
	ErrProviderNotFound = errors.New("oauth_provider_not_found")
	ErrInvalidProvider  = errors.New("oauth_invalid_provider")
	ErrInvalidRequest   = errors.New("oauth_invalid_request")
	ErrUnauthorized     = errors.New("oauth_unauthorized")
)

package types

import "errors"

var (
	// ErrReleaseNotFound indicates that a channel's release feed does not contain a requested SDK version.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrInvalidQuality indicates that a daily build quality outside the accepted set was requested.
	ErrInvalidQuality = errors.New("invalid quality")

	// ErrUnexpectedStatus indicates that an upstream document was served with a non-2xx status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnexpectedContentType indicates that an upstream document was served with an unexpected media type.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrSdkVersionNotFound indicates that the manifest has no sdk.version value.
	ErrSdkVersionNotFound = errors.New(".NET SDK version cannot be found")
)

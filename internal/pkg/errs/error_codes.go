/*
Package errs provides the application's error type and its numeric error codes.

Codes identify validation and system failures both inside the services and in
the JSON envelope returned to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not JSON.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the caller is sending requests too fast.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Content Errors
const (
	// ErrMessageEmpty indicates a chat or direct message with no text.
	ErrMessageEmpty = 2201

	// ErrMessageContentTooLong indicates a message over the length limit.
	ErrMessageContentTooLong = 2202

	// ErrSelfMessage indicates a direct message addressed to its own sender.
	ErrSelfMessage = 2203

	// ErrPostEmpty indicates a post with neither text nor image.
	ErrPostEmpty = 2301

	// ErrPostNotFound indicates that the referenced post does not exist.
	ErrPostNotFound = 2302

	// ErrNotPostAuthor indicates an attempt to delete somebody else's post.
	ErrNotPostAuthor = 2303

	// ErrAvatarTooLarge indicates an uploaded avatar over the size limit.
	ErrAvatarTooLarge = 2401

	// ErrAvatarTypeInvalid indicates an avatar type outside emoji, url, base64.
	ErrAvatarTypeInvalid = 2402
)

// 3xxx: Account and Session Errors
const (
	ErrFieldsRequired     = 3001
	ErrInvalidEmail       = 3002
	ErrPasswordTooShort   = 3003
	ErrPasswordMismatch   = 3004
	ErrEmailTaken         = 3005
	ErrNicknameRequired   = 3006
	ErrNicknameLength     = 3007
	ErrNicknameTaken      = 3008
	ErrEmailNotFound      = 3009
	ErrWrongPassword      = 3010
	ErrUserNotFound       = 3011
	ErrUnauthorized       = 3012
	ErrForbidden          = 3013
	ErrSessionUserMissing = 3014
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrStorageWriteFailed indicates that a collection could not be persisted.
	ErrStorageWriteFailed = 5001
)

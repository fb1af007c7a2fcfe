package errs

import "net/http"

// errorMap holds the user-facing message and HTTP status for every code.
// A zero Status is rendered as 200 with the error carried in the envelope.
var errorMap = map[int]CustomError{
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message is empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d characters)."},
	ErrSelfMessage:           {Code: ErrSelfMessage, Message: "You cannot message yourself."},
	ErrPostEmpty:             {Code: ErrPostEmpty, Message: "Post needs text or an image."},
	ErrPostNotFound:          {Code: ErrPostNotFound, Message: "Post not found.", Status: http.StatusNotFound},
	ErrNotPostAuthor:         {Code: ErrNotPostAuthor, Message: "Only the author can delete this post.", Status: http.StatusForbidden},
	ErrAvatarTooLarge:        {Code: ErrAvatarTooLarge, Message: "File is too large (max %dKB)."},
	ErrAvatarTypeInvalid:     {Code: ErrAvatarTypeInvalid, Message: "Invalid avatar."},

	ErrFieldsRequired:     {Code: ErrFieldsRequired, Message: "Please fill in all fields."},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Message: "Please enter a valid email."},
	ErrPasswordTooShort:   {Code: ErrPasswordTooShort, Message: "Password must be at least %d characters."},
	ErrPasswordMismatch:   {Code: ErrPasswordMismatch, Message: "Passwords do not match."},
	ErrEmailTaken:         {Code: ErrEmailTaken, Message: "This email is already registered."},
	ErrNicknameRequired:   {Code: ErrNicknameRequired, Message: "Please enter a nickname."},
	ErrNicknameLength:     {Code: ErrNicknameLength, Message: "Nickname must be between %d and %d characters."},
	ErrNicknameTaken:      {Code: ErrNicknameTaken, Message: "This nickname is already taken."},
	ErrEmailNotFound:      {Code: ErrEmailNotFound, Message: "No user with this email."},
	ErrWrongPassword:      {Code: ErrWrongPassword, Message: "Wrong password."},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:          {Code: ErrForbidden, Message: "You do not have access to this page.", Status: http.StatusForbidden},
	ErrSessionUserMissing: {Code: ErrSessionUserMissing, Message: "Your account no longer exists. Please sign in again.", Status: http.StatusUnauthorized},

	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageWriteFailed: {Code: ErrStorageWriteFailed, Message: "Could not save your changes. Please try again.", Status: http.StatusInternalServerError},
}

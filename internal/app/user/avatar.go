package user

import (
	"encoding/base64"
	"strings"

	"satorugram/internal/pkg/errs"
)

// MaxAvatarBytes limits the decoded size of an uploaded avatar image.
const MaxAvatarBytes = 500 * 1024

// normalizeAvatar validates an avatar and fills in the default emoji.
func normalizeAvatar(avatar, avatarType string) (string, string, error) {
	avatar = strings.TrimSpace(avatar)

	switch avatarType {
	case "", AvatarEmoji:
		if avatar == "" {
			avatar = DefaultAvatar
		}
		return avatar, AvatarEmoji, nil

	case AvatarURL:
		if avatar == "" {
			return "", "", errs.NewError(errs.ErrAvatarTypeInvalid)
		}
		return avatar, AvatarURL, nil

	case AvatarBase64:
		size, ok := decodedSize(avatar)
		if !ok {
			return "", "", errs.NewError(errs.ErrAvatarTypeInvalid)
		}
		if size > MaxAvatarBytes {
			return "", "", errs.NewError(errs.ErrAvatarTooLarge, MaxAvatarBytes/1024)
		}
		return avatar, AvatarBase64, nil
	}

	return "", "", errs.NewError(errs.ErrAvatarTypeInvalid)
}

// decodedSize returns the byte length of a base64 payload, accepting both a
// bare payload and a data URL ("data:image/png;base64,...").
func decodedSize(value string) (int, bool) {
	payload := value
	if strings.HasPrefix(value, "data:") {
		meta, data, found := strings.Cut(value, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return 0, false
		}
		payload = data
	}
	if payload == "" {
		return 0, false
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, false
	}
	return len(decoded), true
}

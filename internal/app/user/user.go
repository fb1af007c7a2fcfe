/*
Package user contains accounts: the User record, registration, sign in and
profile changes.

It defines the representation of a user stored in the users collection and the
Profile view of it that is safe to show to other users.
*/
package user

// Avatar types.
const (
	AvatarEmoji  = "emoji"
	AvatarURL    = "url"
	AvatarBase64 = "base64"
)

// DefaultAvatar is used when registration supplies none.
const DefaultAvatar = "😀"

// User is one account in the users collection.
type User struct {

	// ID is the opaque unique identifier of the account.
	ID string `json:"id"`

	// Nickname is the display name; unique ignoring case.
	Nickname string `json:"nickname"`

	Email string `json:"email"`

	// Password is stored as entered. Accounts are local to one device.
	Password string `json:"password"`

	// Avatar is an emoji, an image URL or a base64 data URL, per AvatarType.
	Avatar     string `json:"avatar"`
	AvatarType string `json:"avatarType"`

	// CreatedAt and LastOnline are millisecond timestamps.
	CreatedAt  int64 `json:"createdAt"`
	LastOnline int64 `json:"lastOnline"`
}

// Profile is the part of a User that other users may see.
type Profile struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	Avatar     string `json:"avatar"`
	AvatarType string `json:"avatarType"`
	CreatedAt  int64  `json:"createdAt"`
	LastOnline int64  `json:"lastOnline"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Nickname:   u.Nickname,
		Avatar:     u.Avatar,
		AvatarType: u.AvatarType,
		CreatedAt:  u.CreatedAt,
		LastOnline: u.LastOnline,
	}
}

// Account is what a signed-in user sees about themselves.
type Account struct {
	Profile
	Email string `json:"email"`
}

// Account returns u without its password.
func (u User) Account() Account {
	return Account{Profile: u.Profile(), Email: u.Email}
}

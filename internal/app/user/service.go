package user

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/randx"
)

const (
	MinPasswordLength = 6
	MinNicknameLength = 3
	MaxNicknameLength = 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is the data collected by the sign up form.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Nickname        string `json:"nickname"`
	Avatar          string `json:"avatar"`
	AvatarType      string `json:"avatarType"`
}

// Service owns the users collection.
type Service struct {
	users *record.Collection[User]
	bus   fanout.Publisher
	now   clock.Clock

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	logger zerolog.Logger
}

func NewService(store kv.Store, ns record.Namespace, bus fanout.Publisher, now clock.Clock) *Service {
	return &Service{
		users:  record.NewCollection[User](store, ns, record.Users),
		bus:    bus,
		now:    now,
		logger: logx.Component("user"),
	}
}

// Register validates in and creates the account.
//
// Nickname uniqueness is checked against the collection as loaded here; two
// processes registering the same nickname at once can both succeed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	nickname := strings.TrimSpace(in.Nickname)

	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, errs.NewError(errs.ErrFieldsRequired)
	}
	if !emailPattern.MatchString(email) {
		return nil, errs.NewError(errs.ErrInvalidEmail)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, errs.NewError(errs.ErrPasswordTooShort, MinPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		return nil, errs.NewError(errs.ErrPasswordMismatch)
	}
	if nickname == "" {
		return nil, errs.NewError(errs.ErrNicknameRequired)
	}
	if n := utf8.RuneCountInString(nickname); n < MinNicknameLength || n > MaxNicknameLength {
		return nil, errs.NewError(errs.ErrNicknameLength, MinNicknameLength, MaxNicknameLength)
	}

	avatar, avatarType, err := normalizeAvatar(in.Avatar, in.AvatarType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users.Load(ctx)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return nil, errs.NewError(errs.ErrEmailTaken)
		}
		if sameNickname(u.Nickname, nickname) {
			return nil, errs.NewError(errs.ErrNicknameTaken)
		}
	}

	now := clock.Millis(s.now())
	u := User{
		ID:         randx.ID(),
		Nickname:   nickname,
		Email:      email,
		Password:   in.Password,
		Avatar:     avatar,
		AvatarType: avatarType,
		CreatedAt:  now,
		LastOnline: now,
	}

	if err := s.users.Replace(ctx, append(users, u)); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Users)

	s.logger.Info().Str("user_id", u.ID).Str("nickname", u.Nickname).Msg("User registered.")
	return &u, nil
}

// Login checks the credentials and stamps LastOnline.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errs.NewError(errs.ErrFieldsRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users.Load(ctx)
	i := indexOf(users, func(u User) bool { return strings.EqualFold(u.Email, email) })
	if i < 0 {
		return nil, errs.NewError(errs.ErrEmailNotFound)
	}
	if users[i].Password != password {
		return nil, errs.NewError(errs.ErrWrongPassword)
	}

	users[i].LastOnline = clock.Millis(s.now())
	if err := s.users.Replace(ctx, users); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Users)

	u := users[i]
	return &u, nil
}

// UpdateAvatar replaces the avatar of the user with id.
func (s *Service) UpdateAvatar(ctx context.Context, id, avatar, avatarType string) (*User, error) {
	avatar, avatarType, err := normalizeAvatar(avatar, avatarType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users.Load(ctx)
	i := indexOf(users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	users[i].Avatar = avatar
	users[i].AvatarType = avatarType
	if err := s.users.Replace(ctx, users); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Users)

	u := users[i]
	return &u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.find(ctx, func(u User) bool { return u.ID == id })
}

// GetByNickname looks a user up ignoring case and surrounding spaces.
func (s *Service) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	nickname = strings.TrimSpace(nickname)
	return s.find(ctx, func(u User) bool { return sameNickname(u.Nickname, nickname) })
}

func (s *Service) NicknameExists(ctx context.Context, nickname string) bool {
	_, err := s.GetByNickname(ctx, nickname)
	return err == nil
}

// Search returns users whose nickname contains query, ignoring case, sorted
// by nickname. excludeID, when set, is left out of the result.
func (s *Service) Search(ctx context.Context, query, excludeID string) []User {
	query = strings.ToLower(strings.TrimSpace(query))

	found := make([]User, 0)
	for _, u := range s.users.Load(ctx) {
		if u.ID == excludeID && excludeID != "" {
			continue
		}
		if strings.Contains(strings.ToLower(u.Nickname), query) {
			found = append(found, u)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return strings.ToLower(found[i].Nickname) < strings.ToLower(found[j].Nickname)
	})
	return found
}

// List returns every user in registration order.
func (s *Service) List(ctx context.Context) []User {
	return s.users.Load(ctx)
}

func (s *Service) find(ctx context.Context, match func(User) bool) (*User, error) {
	users := s.users.Load(ctx)
	i := indexOf(users, match)
	if i < 0 {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}
	return &users[i], nil
}

func indexOf(users []User, match func(User) bool) int {
	for i, u := range users {
		if match(u) {
			return i
		}
	}
	return -1
}

func sameNickname(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

/*
Package admin builds the administrator dashboard.

Counts are taken straight from the stored JSON with gjson instead of decoding
every collection into structs. A missing or corrupt collection counts as zero.
*/
package admin

import (
	"context"

	"github.com/tidwall/gjson"

	"satorugram/internal/app/feed"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/app/user"
)

// RecentPostsLimit is how many posts the dashboard lists.
const RecentPostsLimit = 10

// Stats are the headline numbers of the dashboard.
type Stats struct {
	Users          int64 `json:"users"`
	Online         int   `json:"online"`
	Posts          int64 `json:"posts"`
	Likes          int64 `json:"likes"`
	Messages       int64 `json:"messages"`
	DirectMessages int64 `json:"directMessages"`
}

// Member is a user as listed on the dashboard.
type Member struct {
	user.Profile
	Online  bool `json:"online"`
	IsAdmin bool `json:"isAdmin"`
}

// Dashboard is everything the admin page shows.
type Dashboard struct {
	Stats       Stats       `json:"stats"`
	Members     []Member    `json:"members"`
	RecentPosts []feed.Post `json:"recentPosts"`
}

// Presence is the part of the presence tracker the dashboard reads.
type Presence interface {
	IsOnline(ctx context.Context, userID string) bool
	OnlineCount(ctx context.Context) int
}

type Service struct {
	store         kv.Store
	ns            record.Namespace
	users         *user.Service
	posts         *feed.Service
	presence      Presence
	adminNickname string
}

func NewService(store kv.Store, ns record.Namespace, users *user.Service, posts *feed.Service, presence Presence, adminNickname string) *Service {
	return &Service{
		store:         store,
		ns:            ns,
		users:         users,
		posts:         posts,
		presence:      presence,
		adminNickname: adminNickname,
	}
}

// IsAdmin reports whether u may open the dashboard.
func (s *Service) IsAdmin(u user.User) bool {
	return u.Nickname == s.adminNickname
}

// Stats counts the records of every collection.
func (s *Service) Stats(ctx context.Context) Stats {
	posts := s.raw(ctx, record.Posts)

	var likes int64
	posts.Get("#.likes.#").ForEach(func(_, count gjson.Result) bool {
		likes += count.Int()
		return true
	})

	return Stats{
		Users:          s.raw(ctx, record.Users).Get("#").Int(),
		Online:         s.presence.OnlineCount(ctx),
		Posts:          posts.Get("#").Int(),
		Likes:          likes,
		Messages:       s.raw(ctx, record.Messages).Get("#").Int(),
		DirectMessages: s.raw(ctx, record.DirectMessages).Get("#").Int(),
	}
}

// Dashboard returns the stats, every member with their online state and the
// newest posts.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	users := s.users.List(ctx)
	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{
			Profile: u.Profile(),
			Online:  s.presence.IsOnline(ctx, u.ID),
			IsAdmin: s.IsAdmin(u),
		})
	}

	recent := s.posts.List(ctx)
	if len(recent) > RecentPostsLimit {
		recent = recent[:RecentPostsLimit]
	}

	return Dashboard{
		Stats:       s.Stats(ctx),
		Members:     members,
		RecentPosts: recent,
	}
}

// raw parses the stored collection, yielding an empty array when it is
// missing or not a JSON array.
func (s *Service) raw(ctx context.Context, name string) gjson.Result {
	data := record.Raw(ctx, s.store, s.ns, name)
	if data == nil || !gjson.ValidBytes(data) {
		return gjson.Parse("[]")
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return gjson.Parse("[]")
	}
	return parsed
}

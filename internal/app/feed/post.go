// Package feed is the shared wall of posts with likes.
package feed

import (
	"slices"

	"satorugram/internal/app/user"
)

// MaxPostLength is the longest accepted post text, in characters.
const MaxPostLength = 2000

// Post is one entry on the wall. Likes holds the ids of users who liked it,
// each at most once, in the order they liked.
type Post struct {
	ID               string   `json:"id"`
	AuthorID         string   `json:"authorId"`
	AuthorNickname   string   `json:"authorNickname"`
	AuthorAvatar     string   `json:"authorAvatar"`
	AuthorAvatarType string   `json:"authorAvatarType,omitempty"`
	Text             string   `json:"text"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	Timestamp        int64    `json:"timestamp"`
	Likes            []string `json:"likes"`
}

// LikedBy reports whether userID likes p.
func (p Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

func (p *Post) toggleLike(userID string) {
	if i := slices.Index(p.Likes, userID); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
		return
	}
	p.Likes = append(p.Likes, userID)
}

func newPost(id string, author user.User, text, imageURL string, timestamp int64) Post {
	return Post{
		ID:               id,
		AuthorID:         author.ID,
		AuthorNickname:   author.Nickname,
		AuthorAvatar:     author.Avatar,
		AuthorAvatarType: author.AvatarType,
		Text:             text,
		ImageURL:         imageURL,
		Timestamp:        timestamp,
		Likes:            []string{},
	}
}

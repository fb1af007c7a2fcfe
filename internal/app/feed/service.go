package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/randx"
)

// Service owns the posts collection.
type Service struct {
	posts *record.Collection[Post]
	bus   fanout.Publisher
	now   clock.Clock

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	logger zerolog.Logger
}

func NewService(store kv.Store, ns record.Namespace, bus fanout.Publisher, now clock.Clock) *Service {
	return &Service{
		posts:  record.NewCollection[Post](store, ns, record.Posts),
		bus:    bus,
		now:    now,
		logger: logx.Component("feed"),
	}
}

// Create publishes a post. It needs text, an image URL or both.
func (s *Service) Create(ctx context.Context, author user.User, text, imageURL string) (*Post, error) {
	text = strings.TrimSpace(text)
	imageURL = strings.TrimSpace(imageURL)

	if text == "" && imageURL == "" {
		return nil, errs.NewError(errs.ErrPostEmpty)
	}
	if utf8.RuneCountInString(text) > MaxPostLength {
		return nil, errs.NewError(errs.ErrMessageContentTooLong, MaxPostLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := newPost(randx.ID(), author, text, imageURL, clock.Millis(s.now()))
	posts := append([]Post{post}, s.List(ctx)...)

	if err := s.posts.Replace(ctx, posts); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Posts)

	s.logger.Debug().Str("author_id", author.ID).Str("post_id", post.ID).Msg("Post created.")
	return &post, nil
}

// List returns all posts newest first.
func (s *Service) List(ctx context.Context) []Post {
	posts := s.posts.Load(ctx)
	for i := range posts {
		if posts[i].Likes == nil {
			posts[i].Likes = []string{}
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Timestamp > posts[j].Timestamp
	})
	return posts
}

// ByAuthor returns the posts of authorID newest first.
func (s *Service) ByAuthor(ctx context.Context, authorID string) []Post {
	posts := make([]Post, 0)
	for _, p := range s.List(ctx) {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	return posts
}

// ToggleLike adds userID to the likes of postID, or removes it when already
// there, and returns the updated post.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.List(ctx)
	i := indexOf(posts, postID)
	if i < 0 {
		return nil, errs.NewError(errs.ErrPostNotFound)
	}

	posts[i].toggleLike(userID)
	if err := s.posts.Replace(ctx, posts); err != nil {
		return nil, errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Posts)

	post := posts[i]
	return &post, nil
}

// Delete removes postID. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, postID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.List(ctx)
	i := indexOf(posts, postID)
	if i < 0 {
		return errs.NewError(errs.ErrPostNotFound)
	}
	if posts[i].AuthorID != requesterID {
		return errs.NewError(errs.ErrNotPostAuthor)
	}

	posts = append(posts[:i], posts[i+1:]...)
	if err := s.posts.Replace(ctx, posts); err != nil {
		return errs.Wrap(errs.ErrStorageWriteFailed, err)
	}
	s.bus.Publish(fanout.Posts)

	s.logger.Info().Str("post_id", postID).Str("author_id", requesterID).Msg("Post deleted.")
	return nil
}

func indexOf(posts []Post, id string) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

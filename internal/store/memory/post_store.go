package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

// PostStore implements store.PostStore using in-memory storage.
type PostStore struct {
	mu sync.RWMutex

	posts        map[uuid.UUID]*models.Post // post_id -> Post
	postsByTitle map[string]uuid.UUID       // title -> post_id
}

// NewPostStore creates a new in-memory post store.
func NewPostStore() *PostStore {
	return &PostStore{
		posts:        make(map[uuid.UUID]*models.Post),
		postsByTitle: make(map[string]uuid.UUID),
	}
}

// Create creates a new post in memory.
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postsByTitle[post.Title]; exists {
		return store.ErrPostAlreadyExists
	}

	clone := *post
	s.posts[post.PostID] = &clone
	s.postsByTitle[post.Title] = post.PostID

	return nil
}

// Get retrieves a post by ID.
func (s *PostStore) Get(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[postID]
	if !exists {
		return nil, store.ErrPostNotFound
	}

	clone := *post
	return &clone, nil
}

// List returns a page of posts ordered newest first.
func (s *PostStore) List(ctx context.Context, opts store.ListPostsOptions) ([]*models.Post, error) {
	offset := opts.Normalize()

	s.mu.RLock()
	all := make([]*models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		clone := *post
		all = append(all, &clone)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].PostID.String() > all[j].PostID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.Post{}, nil
	}

	end := min(offset+opts.Limit, len(all))
	return all[offset:end], nil
}

// Update applies a partial update to a post.
func (s *PostStore) Update(ctx context.Context, postID uuid.UUID, update models.PostUpdate, updatedAt time.Time) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return nil, store.ErrPostNotFound
	}

	if update.Title != nil && *update.Title != post.Title {
		if _, taken := s.postsByTitle[*update.Title]; taken {
			return nil, store.ErrPostAlreadyExists
		}
		delete(s.postsByTitle, post.Title)
		s.postsByTitle[*update.Title] = postID
	}

	update.Apply(post)
	post.UpdatedAt = updatedAt

	clone := *post
	return &clone, nil
}

// Delete removes a post.
func (s *PostStore) Delete(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return store.ErrPostNotFound
	}

	delete(s.postsByTitle, post.Title)
	delete(s.posts, postID)
	return nil
}

package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// User is the display metadata attached to outbound payloads.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Directory looks up display metadata for users. Lookups are best-effort
// decoration; callers must never fail a command on a directory error.
type Directory interface {
	GetUser(ctx context.Context, userID int64) (User, error)
	BulkUsers(ctx context.Context, ids []int64) (map[int64]User, error)
}

// Placeholder is the display name used when a lookup degrades.
func Placeholder(userID int64) User {
	return User{ID: userID, Username: fmt.Sprintf("user-%d", userID)}
}

// HTTPDirectory talks to the user service's internal JSON endpoint.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory constructs a directory client.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// GetUser fetches one user's display info.
func (d *HTTPDirectory) GetUser(ctx context.Context, userID int64) (User, error) {
	url := fmt.Sprintf("%s/internal/users/%d", d.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return User{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("user lookup status %d", resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return User{}, err
	}
	return u, nil
}

// BulkUsers fetches several users, degrading to placeholders per id on failure.
func (d *HTTPDirectory) BulkUsers(ctx context.Context, ids []int64) (map[int64]User, error) {
	result := make(map[int64]User, len(ids))
	for _, id := range ids {
		u, err := d.GetUser(ctx, id)
		if err != nil {
			log.Printf("user lookup degraded user_id=%d: %v", id, err)
			u = Placeholder(id)
		}
		result[id] = u
	}
	return result, nil
}

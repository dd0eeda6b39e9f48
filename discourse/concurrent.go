package discourse

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// MaxConcurrency bounds the number of requests a batch call has in flight.
const MaxConcurrency = 4

// GetUsers fetches several users concurrently. Results are in the order of
// usernames. Requests still go through the client's throttle.
func (c *Client) GetUsers(ctx context.Context, usernames ...string) ([]*UserResponse, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	users := make([]*UserResponse, len(usernames))

	// Create error group with limited concurrency
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrency)

	for i, username := range usernames {
		g.Go(func() error {
			user, err := c.GetUser(ctx, username)
			if err != nil {
				return fmt.Errorf("getting user %s: %w", username, err)
			}
			// Each goroutine owns its slot
			users[i] = user

			c.logger.Debug().
				Str("username", username).
				Msg("Fetched user")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

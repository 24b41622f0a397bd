package session

import "context"

// Change is emitted whenever the signed-in user changes. An empty UserID
// means signed out.
type Change struct {
	UserID string
}

// Store yields the current user identifier, or "" when it holds none.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, userID string) error
}

// Chain is the authoritative session source: an ordered list of stores tried
// front to back. The first store is primary; the rest are fallbacks consulted
// only when earlier ones are empty.
type Chain struct {
	stores  []Store
	changes chan Change
}

func NewChain(stores ...Store) *Chain {
	return &Chain{stores: stores, changes: make(chan Change, 8)}
}

// CurrentUserID walks the chain and returns the first non-empty identifier.
// All stores empty means signed out, not an error.
func (c *Chain) CurrentUserID(ctx context.Context) (string, error) {
	var lastErr error
	for _, s := range c.stores {
		id, err := s.Get(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	return "", lastErr
}

// SignIn writes the identifier to the primary store and announces the change.
func (c *Chain) SignIn(ctx context.Context, userID string) error {
	if len(c.stores) > 0 {
		if err := c.stores[0].Set(ctx, userID); err != nil {
			return err
		}
	}
	c.changes <- Change{UserID: userID}
	return nil
}

// SignOut clears every store and announces the change.
func (c *Chain) SignOut(ctx context.Context) error {
	var lastErr error
	for _, s := range c.stores {
		if err := s.Set(ctx, ""); err != nil {
			lastErr = err
		}
	}
	c.changes <- Change{}
	return lastErr
}

// Changes is the stream of user identifier changes.
func (c *Chain) Changes() <-chan Change { return c.changes }

func (c *Chain) Close() { close(c.changes) }

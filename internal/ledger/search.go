package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"shopadmin/internal/shopapi"
)

// UserAPI is the user-directory slice of the shop client.
type UserAPI interface {
	ListUsers(ctx context.Context, name string) ([]shopapi.User, error)
}

// UserSearcher debounces name lookups: a lookup fires only after the input
// has been quiet for the debounce window, and each keystroke bumps a
// generation counter so a stale completion can never overwrite a newer
// query's result. Last issued wins, regardless of arrival order.
type UserSearcher struct {
	api      UserAPI
	debounce time.Duration
	apply    func(query string, users []shopapi.User, err error)

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	waiter chan searchOutcome
}

type searchOutcome struct {
	users      []shopapi.User
	err        error
	superseded bool
}

// NewUserSearcher builds a searcher. apply may be nil when the caller only
// uses the blocking Search form.
func NewUserSearcher(api UserAPI, debounce time.Duration, apply func(query string, users []shopapi.User, err error)) *UserSearcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &UserSearcher{api: api, debounce: debounce, apply: apply}
}

// Input registers a keystroke. Any pending lookup is superseded; the new
// one fires after the quiet period.
func (s *UserSearcher) Input(ctx context.Context, query string) {
	s.schedule(ctx, query, nil)
}

// Search registers a keystroke and waits for its outcome. ok is false when
// a later keystroke superseded this one, in which case the result must be
// discarded.
func (s *UserSearcher) Search(ctx context.Context, query string) (users []shopapi.User, ok bool, err error) {
	ch := make(chan searchOutcome, 1)
	s.schedule(ctx, query, ch)
	select {
	case outcome := <-ch:
		if outcome.superseded {
			return nil, false, nil
		}
		return outcome.users, true, outcome.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Cancel drops any pending lookup, e.g. when the view goes away.
func (s *UserSearcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.releaseWaiter()
}

func (s *UserSearcher) schedule(ctx context.Context, query string, waiter chan searchOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.releaseWaiter()
	s.waiter = waiter
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, gen, query)
	})
}

func (s *UserSearcher) run(ctx context.Context, gen uint64, query string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	var (
		users []shopapi.User
		err   error
	)
	// A blank query clears the dropdown without asking the directory.
	if strings.TrimSpace(query) != "" {
		users, err = s.api.ListUsers(ctx, query)
	}

	s.mu.Lock()
	if gen != s.gen {
		// Superseded while the request was in flight; its waiter was
		// already released, so just drop the result.
		s.mu.Unlock()
		return
	}
	waiter := s.waiter
	s.waiter = nil
	s.mu.Unlock()

	if waiter != nil {
		waiter <- searchOutcome{users: users, err: err}
	}
	if s.apply != nil {
		s.apply(query, users, err)
	}
}

// releaseWaiter unblocks a superseded Search caller. Callers hold mu.
func (s *UserSearcher) releaseWaiter() {
	if s.waiter != nil {
		s.waiter <- searchOutcome{superseded: true}
		s.waiter = nil
	}
}

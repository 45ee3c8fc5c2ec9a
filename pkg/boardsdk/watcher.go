package boardsdk

import (
	"context"
	"strings"
	"time"
)

// DefaultWatchInterval is how often a Watcher polls when Interval is zero.
const DefaultWatchInterval = 30 * time.Second

// Watcher polls the signed-in user's pending invitations and publishes the
// list whenever it changes. It backs a notification indicator.
type Watcher struct {
	Session  *Session
	Interval time.Duration

	// OnError is called for failed polls. The watcher keeps polling.
	OnError func(error)
}

func NewWatcher(s *Session, interval time.Duration) *Watcher {
	return &Watcher{Session: s, Interval: interval}
}

// Run polls until ctx is done. The first successful poll is always
// published; later polls only when the set of invitations changed. The
// returned channel is closed when Run stops.
func (w *Watcher) Run(ctx context.Context) <-chan []UserInvitation {
	out := make(chan []UserInvitation, 1)

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var (
			last      string
			published bool
		)
		for {
			list, err := w.Session.ListMyInvitations(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				if w.OnError != nil {
					w.OnError(err)
				}
			default:
				sig := signature(list)
				if !published || sig != last {
					if list == nil {
						list = []UserInvitation{}
					}
					select {
					case out <- list:
					case <-ctx.Done():
						return
					}
					last, published = sig, true
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// signature identifies a pending list. A resend changes ExpiresAt, which
// counts as a change.
func signature(list []UserInvitation) string {
	var b strings.Builder
	for _, inv := range list {
		b.WriteString(inv.ID)
		b.WriteByte('@')
		b.WriteString(inv.ExpiresAt.UTC().Format(time.RFC3339Nano))
		b.WriteByte(';')
	}
	return b.String()
}

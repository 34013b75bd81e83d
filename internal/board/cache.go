// Package board keeps an in-memory snapshot of one Monday.com board.
//
// The snapshot is replaced wholesale on every refresh. Concurrent refreshes are
// coalesced into one upstream query, and a failed refresh keeps the previous
// snapshot.
package board

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tkingovr/monday-mcp/internal/monday"
)

// Source loads a full board.
type Source interface {
	Board(ctx context.Context, boardID string) (*monday.Board, error)
}

// Snapshot is the cached state of a board. Snapshots are never mutated after
// they are published.
type Snapshot struct {
	BoardID     string          `json:"boardId"`
	BoardName   string          `json:"boardName"`
	Columns     []monday.Column `json:"columns"`
	Items       []monday.Item   `json:"items"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Cache holds the latest Snapshot of a board.
type Cache struct {
	source  Source
	boardID string
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCache creates a cache for boardID. A nil logger discards output.
func NewCache(source Source, boardID string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		source:  source,
		boardID: boardID,
		logger:  logger,
		now:     time.Now,
	}
}

// BoardID returns the board the cache tracks.
func (c *Cache) BoardID() string {
	return c.boardID
}

// Refresh reloads the board. Callers that arrive while a refresh is in flight
// share its result. The upstream query is not canceled when one waiter gives up.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := c.group.DoChan(c.boardID, func() (any, error) {
		return c.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	b, err := c.source.Board(ctx, c.boardID)
	if err != nil {
		c.logger.Warn("board refresh failed", "board", c.boardID, "error", err)
		return nil, err
	}
	snap := &Snapshot{
		BoardID:     c.boardID,
		BoardName:   b.Name,
		Columns:     b.Columns,
		Items:       b.Items,
		LastUpdated: c.now(),
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.logger.Info("board knowledge updated",
		"board", c.boardID,
		"items", len(snap.Items),
		"columns", len(snap.Columns),
	)
	return snap, nil
}

// Snapshot returns the current snapshot, if any.
func (c *Cache) Snapshot() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// LastUpdated returns when the current snapshot was taken, or the zero time.
func (c *Cache) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return time.Time{}
	}
	return c.snap.LastUpdated
}

// Get returns the snapshot, refreshing first when it is missing or older than
// maxAge. A maxAge of zero always refreshes.
func (c *Cache) Get(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	if snap, ok := c.Snapshot(); ok && maxAge > 0 && c.now().Sub(snap.LastUpdated) < maxAge {
		return snap, nil
	}
	return c.Refresh(ctx)
}

// FindItem looks an item up by name: exact (case-insensitive) matches win, then
// the first item whose name contains name or is contained in it.
func (s *Snapshot) FindItem(name string) (*monday.Item, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for i := range s.Items {
		if strings.ToLower(s.Items[i].Name) == needle {
			return &s.Items[i], true
		}
	}
	for i := range s.Items {
		hay := strings.ToLower(s.Items[i].Name)
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// FindColumn looks a column up by id or title, with the same matching rules as
// FindItem applied to titles.
func (s *Snapshot) FindColumn(name string) (*monday.Column, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for i := range s.Columns {
		if s.Columns[i].ID == name || strings.ToLower(s.Columns[i].Title) == needle {
			return &s.Columns[i], true
		}
	}
	for i := range s.Columns {
		hay := strings.ToLower(s.Columns[i].Title)
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// ItemNames lists the item names in board order.
func (s *Snapshot) ItemNames() []string {
	names := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		names = append(names, it.Name)
	}
	return names
}

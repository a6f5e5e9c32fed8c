// Package notify keeps the short-lived notices shown to the reader.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brogergvhs/endless/internal/ui"
)

const DefaultDuration = 3 * time.Second

type Variant string

const (
	Success Variant = "success"
	Error   Variant = "error"
	Warning Variant = "warning"
	Info    Variant = "info"
)

type Notice struct {
	// ID names the notice; showing a notice with the ID of a live one
	// replaces it. Generated when empty.
	ID       string
	Message  string
	Variant  Variant
	Duration time.Duration

	seq uint64
}

type entry struct {
	notice Notice
	timer  *time.Timer
}

type Center struct {
	log      *ui.Logger
	duration time.Duration

	mu     sync.Mutex
	active map[string]*entry
	seq    uint64
	subs   map[int]chan struct{}
	nextID int
}

func New(log *ui.Logger, defaultDuration time.Duration) *Center {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Center{
		log:      log,
		duration: defaultDuration,
		active:   make(map[string]*entry),
		subs:     make(map[int]chan struct{}),
	}
}

// Show displays n until its duration elapses and returns its ID.
func (c *Center) Show(n Notice) string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Variant == "" {
		n.Variant = Success
	}
	if n.Duration <= 0 {
		n.Duration = c.duration
	}

	switch n.Variant {
	case Error:
		c.log.Errorf("%s", n.Message)
	case Warning:
		c.log.Warnf("%s", n.Message)
	default:
		c.log.Infof("%s", n.Message)
	}

	c.mu.Lock()
	if old, ok := c.active[n.ID]; ok {
		old.timer.Stop()
	}
	c.seq++
	n.seq = c.seq
	id := n.ID
	e := &entry{notice: n}
	e.timer = time.AfterFunc(n.Duration, func() { c.expire(id, e) })
	c.active[id] = e
	c.mu.Unlock()

	c.changed()
	return id
}

func (c *Center) expire(id string, e *entry) {
	c.mu.Lock()
	cur, ok := c.active[id]
	if !ok || cur != e {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	c.mu.Unlock()

	c.changed()
}

func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	e, ok := c.active[id]
	if ok {
		e.timer.Stop()
		delete(c.active, id)
	}
	c.mu.Unlock()

	if ok {
		c.changed()
	}
}

func (c *Center) DismissAll() {
	c.mu.Lock()
	n := len(c.active)
	for id, e := range c.active {
		e.timer.Stop()
		delete(c.active, id)
	}
	c.mu.Unlock()

	if n > 0 {
		c.changed()
	}
}

// Active returns the live notices, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	out := make([]Notice, 0, len(c.active))
	for _, e := range c.active {
		out = append(out, e.notice)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Subscribe returns a channel signalled after every change. Signals are
// coalesced; call cancel to stop receiving.
func (c *Center) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Center) changed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

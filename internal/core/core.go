// Package core coordinates the fetch, announce and delivery workers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"manga_bot/internal/announcer"
	"manga_bot/internal/model"
)

const (
	eventBuffer = 16

	// settleDelay gives the delivery connection a moment to stabilize
	// before a chained announce, and paces reconnect attempts.
	settleDelay = 5 * time.Second
)

// Fetcher runs fetch batches against the configured targets.
type Fetcher interface {
	FetchAll(ctx context.Context) error
}

// Announcer runs announce passes against known servers.
type Announcer interface {
	AnnounceServer(ctx context.Context, sender announcer.Sender, server model.Server) error
	AnnounceAll(ctx context.Context, sender announcer.Sender) error
}

// Bot is the delivery connection lifecycle. Connect returning nil
// means the connection is ready; Run blocks until it drops.
type Bot interface {
	announcer.Sender
	Connect(ctx context.Context) error
	Run(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

type workerKind int

const (
	kindFetch workerKind = iota
	kindAnnounce
	kindServerAnnounce
	kindBot
)

func (k workerKind) String() string {
	switch k {
	case kindFetch:
		return "fetch"
	case kindAnnounce:
		return "announce"
	case kindServerAnnounce:
		return "server-announce"
	case kindBot:
		return "bot"
	}
	return "unknown"
}

// workerKey identifies one tracked worker. The identifier is set only
// for per-server announce workers, so distinct servers may run
// concurrently while everything else is singleton.
type workerKey struct {
	kind       workerKind
	identifier string
}

// Core is the dispatcher: a single event loop that spawns workers,
// tracks what is in flight, and drops triggers for work that is
// already running.
type Core struct {
	gofer     Fetcher
	announcer Announcer
	bot       Bot
	log       *slog.Logger

	events chan Event
	settle time.Duration

	// Loop-owned state. Only the Run goroutine touches these.
	workers       map[workerKey]context.CancelFunc
	delivery      announcer.Sender
	chainAnnounce bool
}

// New creates a Core over the given workers and delivery connection.
func New(gofer Fetcher, a Announcer, bot Bot, log *slog.Logger) *Core {
	return &Core{
		gofer:     gofer,
		announcer: a,
		bot:       bot,
		log:       log,
		events:    make(chan Event, eventBuffer),
		settle:    settleDelay,
		workers:   make(map[workerKey]context.CancelFunc),
	}
}

// SetSettleDelay overrides the chained-announce and reconnect delay
// (useful for testing).
func (c *Core) SetSettleDelay(d time.Duration) {
	c.settle = d
}

// Trigger posts an event without blocking. When the buffer is full the
// event is dropped with a log line.
func (c *Core) Trigger(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event buffer full, dropping event", "event", fmt.Sprintf("%T", ev))
	}
}

// TriggerFetch starts a fetch batch that announces afterwards.
func (c *Core) TriggerFetch() {
	c.Trigger(StartFetch{Announce: true})
}

// TriggerAnnounceAll starts an announce pass over every server.
func (c *Core) TriggerAnnounceAll() {
	c.Trigger(StartAnnounce{})
}

// TriggerServerAnnounce starts an announce pass for one server.
func (c *Core) TriggerServerAnnounce(server model.Server) {
	c.Trigger(StartServerAnnounce{Server: server})
}

// Run consumes events until ctx is cancelled or a Quit event arrives.
// On entry it starts the delivery connection and a first fetch batch.
func (c *Core) Run(ctx context.Context) {
	c.Trigger(StartBot{})
	c.Trigger(StartFetch{Announce: true})

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case ev := <-c.events:
			if _, ok := ev.(Quit); ok {
				c.shutdown()
				return
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Core) handle(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case StartBot:
		c.startBot(ctx)

	case BotReady:
		c.delivery = ev.Delivery
		c.log.Info("delivery connected")

	case BotStopped:
		c.untrack(workerKey{kind: kindBot})
		c.delivery = nil
		if ev.Err != nil {
			c.log.Error("delivery connection lost", "error", ev.Err)
		}
		c.after(StartBot{})

	case StartFetch:
		c.startFetch(ctx, ev.Announce)

	case FetchDone:
		c.untrack(workerKey{kind: kindFetch})
		if ev.Err != nil {
			c.log.Error("fetch batch finished with errors", "error", ev.Err)
		} else {
			c.log.Info("fetch batch finished")
		}
		if c.chainAnnounce {
			c.chainAnnounce = false
			c.after(StartAnnounce{})
		}

	case StartAnnounce:
		c.startAnnounce(ctx)

	case AnnounceDone:
		c.untrack(workerKey{kind: kindAnnounce})
		if ev.Err != nil {
			c.log.Error("announce batch finished with errors", "error", ev.Err)
		} else {
			c.log.Info("announce batch finished")
		}

	case StartServerAnnounce:
		c.startServerAnnounce(ctx, ev.Server)

	case ServerAnnounceDone:
		c.untrack(workerKey{kind: kindServerAnnounce, identifier: ev.Identifier})
		if ev.Err != nil {
			c.log.Error("server announce finished with errors", "server", ev.Identifier, "error", ev.Err)
		}
	}
}

// spawn registers a worker under key and returns the context its task
// should run with. Returns false when the key is already tracked.
func (c *Core) spawn(ctx context.Context, key workerKey) (context.Context, bool) {
	if _, ok := c.workers[key]; ok {
		c.log.Info("worker already running, dropping trigger", "kind", key.kind.String(), "server", key.identifier)
		return nil, false
	}
	wctx, cancel := context.WithCancel(ctx)
	c.workers[key] = cancel
	return wctx, true
}

func (c *Core) untrack(key workerKey) {
	if cancel, ok := c.workers[key]; ok {
		cancel()
		delete(c.workers, key)
	}
}

// after re-posts an event once the settle delay has passed.
func (c *Core) after(ev Event) {
	time.AfterFunc(c.settle, func() { c.Trigger(ev) })
}

func (c *Core) startBot(ctx context.Context) {
	wctx, ok := c.spawn(ctx, workerKey{kind: kindBot})
	if !ok {
		return
	}
	go func() {
		if err := c.bot.Connect(wctx); err != nil {
			c.Trigger(BotStopped{Err: fmt.Errorf("connect: %w", err)})
			return
		}
		c.Trigger(BotReady{Delivery: c.bot})
		c.Trigger(BotStopped{Err: c.bot.Run(wctx)})
	}()
}

func (c *Core) startFetch(ctx context.Context, announce bool) {
	wctx, ok := c.spawn(ctx, workerKey{kind: kindFetch})
	if !ok {
		return
	}
	c.chainAnnounce = announce
	go func() {
		c.Trigger(FetchDone{Err: c.gofer.FetchAll(wctx)})
	}()
}

func (c *Core) startAnnounce(ctx context.Context) {
	if c.delivery == nil {
		c.log.Info("delivery not connected, dropping announce trigger")
		return
	}
	wctx, ok := c.spawn(ctx, workerKey{kind: kindAnnounce})
	if !ok {
		return
	}
	sender := c.delivery
	go func() {
		c.Trigger(AnnounceDone{Err: c.announcer.AnnounceAll(wctx, sender)})
	}()
}

func (c *Core) startServerAnnounce(ctx context.Context, server model.Server) {
	if c.delivery == nil {
		c.log.Info("delivery not connected, dropping announce trigger", "server", server.Identifier)
		return
	}
	wctx, ok := c.spawn(ctx, workerKey{kind: kindServerAnnounce, identifier: server.Identifier})
	if !ok {
		return
	}
	sender := c.delivery
	go func() {
		c.Trigger(ServerAnnounceDone{
			Identifier: server.Identifier,
			Err:        c.announcer.AnnounceServer(wctx, sender, server),
		})
	}()
}

// shutdown cancels every tracked worker and closes the delivery
// connection.
func (c *Core) shutdown() {
	for key, cancel := range c.workers {
		cancel()
		delete(c.workers, key)
	}
	if c.delivery != nil {
		if err := c.bot.Disconnect(context.Background()); err != nil {
			c.log.Error("disconnect delivery", "error", err)
		}
		c.delivery = nil
	}
	c.log.Info("dispatcher stopped")
}

// RunOnce performs one fetch and one announce pass sequentially and
// returns. Any worker failure, or the delivery connection dropping
// mid-sequence, aborts with an error.
func (c *Core) RunOnce(ctx context.Context) error {
	if err := c.bot.Connect(ctx); err != nil {
		return fmt.Errorf("connect delivery: %w", err)
	}

	botErr := make(chan error, 1)
	go func() { botErr <- c.bot.Run(ctx) }()

	await := func(name string, run func(context.Context) error) error {
		done := make(chan error, 1)
		go func() { done <- run(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		case err := <-botErr:
			if err == nil {
				err = errors.New("connection closed")
			}
			return fmt.Errorf("delivery connection ended during %s: %w", name, err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := await("fetch", c.gofer.FetchAll); err != nil {
		return err
	}
	if err := await("announce", func(ctx context.Context) error {
		return c.announcer.AnnounceAll(ctx, c.bot)
	}); err != nil {
		return err
	}

	return c.bot.Disconnect(ctx)
}

package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/playtimeshop/internal/discord"
	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// Shop is the part of the shop service the chat router drives
type Shop interface {
	ShowPoints(ctx context.Context, playerID string) (int64, error)
	Buy(ctx context.Context, playerID, offerText string) (entities.PurchaseResult, error)
	Catalog() *catalog.Catalog
	Rate() entities.RewardRate
}

// Bot routes chat commands from Discord to the shop
type Bot struct {
	session discord.SessionHandler
	shop    Shop
	prefix  string
	logger  *logging.Logger

	ctx           context.Context
	cancel        context.CancelFunc
	removeHandler func()

	mu         sync.Mutex
	closed     bool
	shutdownWg sync.WaitGroup
}

// New creates a new instance of Bot
func New(session discord.SessionHandler, shop Shop, prefix string, logger *logging.Logger) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		session: session,
		shop:    shop,
		prefix:  prefix,
		logger:  logging.OrDefault(logger),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the message handler and connects to Discord
func (b *Bot) Start() error {
	b.removeHandler = b.session.AddHandler(b.handleMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("[BOT] Listening for %s commands", b.prefix)
	return nil
}

// Shutdown stops handling messages, waits for commands in flight and
// closes the session
func (b *Bot) Shutdown() {
	if b.removeHandler != nil {
		b.removeHandler()
	}

	// No command may start once the wait begins
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	// Wait for any ongoing operations to complete
	b.shutdownWg.Wait()
	b.cancel()

	if err := b.session.Close(); err != nil {
		b.logger.Warn("[BOT] Error closing Discord session: %v", err)
	}
}

// track registers a command in flight. It reports false after Shutdown.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.shutdownWg.Add(1)
	return true
}

// handleMessageCreate handles Discord message events
func (b *Bot) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(b.session, m)
}

// isSelf reports whether the message was written by this bot
func isSelf(s discord.SessionHandler, m *discordgo.MessageCreate) bool {
	state := s.State()
	if state == nil || state.User == nil {
		return false
	}
	return m.Author.ID == state.User.ID
}

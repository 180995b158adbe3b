package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	applogger "MarketSim/pkg/logger"
)

const replyTimeout = 15 * time.Second

// CommandHandler executes one chat command. ok == false means stay silent.
type CommandHandler interface {
	Handle(ctx context.Context, cmd models.Command) (models.Reply, bool)
}

// sender is the subset of *discordgo.Session used to post messages.
type sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects the command router to a Discord gateway session and doubles as
// the report Broadcaster.
type Bot struct {
	session *discordgo.Session
	out     sender
	router  CommandHandler
	logger  *applogger.Logger
}

// NewBot prepares a session for token. Nothing connects until Start.
func NewBot(token string, router CommandHandler, logger *applogger.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := newBot(s, router, logger)
	b.session = s
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	return b, nil
}

func newBot(out sender, router CommandHandler, logger *applogger.Logger) *Bot {
	return &Bot{out: out, router: router, logger: logger}
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close closes the gateway connection.
func (b *Bot) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// Send posts text to channelID.
func (b *Bot) Send(ctx context.Context, channelID, text string) error {
	if _, err := b.out.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: %v", market.ErrBroadcastFailure, err)
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord connected", applogger.String("user", r.User.Username), applogger.Int("guilds", len(r.Guilds)))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	b.handleMessage(ctx, selfID, m.Message)
}

func (b *Bot) handleMessage(ctx context.Context, selfID string, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return
	}

	reply, ok := b.router.Handle(ctx, models.Command{
		CallerID:  m.Author.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
	})
	if !ok || reply.Text == "" {
		return
	}

	var err error
	if reply.Quote {
		_, err = b.out.ChannelMessageSendReply(m.ChannelID, reply.Text, m.Reference(), discordgo.WithContext(ctx))
	} else {
		_, err = b.out.ChannelMessageSend(m.ChannelID, reply.Text, discordgo.WithContext(ctx))
	}
	if err != nil {
		b.logger.Error("discord reply failed",
			applogger.String("channel", m.ChannelID),
			applogger.String("caller", m.Author.ID),
			applogger.Error(err),
		)
	}
}

package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	applogger "MarketSim/pkg/logger"
)

type post struct {
	channel string
	content string
	ref     *discordgo.MessageReference
}

type fakeSender struct {
	posts []post
	err   error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.posts = append(f.posts, post{channel: channelID, content: content})
	return &discordgo.Message{}, f.err
}

func (f *fakeSender) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.posts = append(f.posts, post{channel: channelID, content: content, ref: ref})
	return &discordgo.Message{}, f.err
}

type stubRouter struct {
	reply models.Reply
	ok    bool
	got   []models.Command
}

func (r *stubRouter) Handle(_ context.Context, cmd models.Command) (models.Reply, bool) {
	r.got = append(r.got, cmd)
	return r.reply, r.ok
}

func message(author string, bot bool, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "chan",
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: author, Bot: bot},
	}
}

func TestBot_Send(t *testing.T) {
	out := &fakeSender{}
	b := newBot(out, &stubRouter{}, applogger.Nop())

	require.NoError(t, b.Send(context.Background(), "chan", "report"))
	assert.Equal(t, []post{{channel: "chan", content: "report"}}, out.posts)
}

func TestBot_SendFailureWrapsBroadcastError(t *testing.T) {
	out := &fakeSender{err: errors.New("429 too many requests")}
	b := newBot(out, &stubRouter{}, applogger.Nop())

	err := b.Send(context.Background(), "chan", "report")
	assert.ErrorIs(t, err, market.ErrBroadcastFailure)
	assert.Contains(t, err.Error(), "429")
}

func TestBot_PlainReply(t *testing.T) {
	out := &fakeSender{}
	r := &stubRouter{reply: models.Reply{Text: "prices"}, ok: true}
	b := newBot(out, r, applogger.Nop())

	b.handleMessage(context.Background(), "self", message("u1", false, "!stocks"))

	require.Len(t, r.got, 1)
	assert.Equal(t, models.Command{CallerID: "u1", ChannelID: "chan", Text: "!stocks"}, r.got[0])
	require.Len(t, out.posts, 1)
	assert.Nil(t, out.posts[0].ref)
	assert.Equal(t, "prices", out.posts[0].content)
}

func TestBot_QuotedReplyReferencesMessage(t *testing.T) {
	out := &fakeSender{}
	r := &stubRouter{reply: models.Reply{Text: "✅ Event added! (1 total)", Quote: true}, ok: true}
	b := newBot(out, r, applogger.Nop())

	b.handleMessage(context.Background(), "self", message("op", false, `!addevent MICX 0.1 "x"`))

	require.Len(t, out.posts, 1)
	require.NotNil(t, out.posts[0].ref)
	assert.Equal(t, "m1", out.posts[0].ref.MessageID)
	assert.Equal(t, "chan", out.posts[0].ref.ChannelID)
}

func TestBot_IgnoresBotsSelfAndSilentReplies(t *testing.T) {
	out := &fakeSender{}
	r := &stubRouter{reply: models.Reply{Text: "x"}, ok: true}
	b := newBot(out, r, applogger.Nop())

	b.handleMessage(context.Background(), "self", message("other-bot", true, "!stocks"))
	b.handleMessage(context.Background(), "self", message("self", false, "!stocks"))
	b.handleMessage(context.Background(), "self", &discordgo.Message{Content: "!stocks"})
	assert.Empty(t, r.got)

	r.ok = false
	b.handleMessage(context.Background(), "self", message("u1", false, "!addevent"))
	assert.Len(t, r.got, 1)
	assert.Empty(t, out.posts)
}

func TestBot_CloseWithoutSession(t *testing.T) {
	b := newBot(&fakeSender{}, &stubRouter{}, applogger.Nop())
	assert.NoError(t, b.Close())
}

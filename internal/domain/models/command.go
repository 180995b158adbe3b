package models

// Command is one inbound chat message addressed to the bot.
type Command struct {
	CallerID  string
	ChannelID string
	Text      string
}

// Reply is the bot's answer to a Command. Quote marks replies that reference the
// triggering message rather than plain channel posts.
type Reply struct {
	Text  string
	Quote bool
}

// Portfolio holds one user's simulated cash and share holdings.
type Portfolio struct {
	Cash     float64        `json:"cash"`
	Holdings map[string]int `json:"holdings"`
}

// Clone returns a deep copy.
func (p Portfolio) Clone() Portfolio {
	h := make(map[string]int, len(p.Holdings))
	for k, v := range p.Holdings {
		h[k] = v
	}
	return Portfolio{Cash: p.Cash, Holdings: h}
}

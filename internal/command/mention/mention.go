package mention

import (
	"context"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/middleware"
)

const Greeting = "hi my name jira"

// GreetCommand answers any message that mentions the bot.
type GreetCommand struct{}

func (c *GreetCommand) Name() string        { return "greet" }
func (c *GreetCommand) Description() string { return "Replies when the bot is mentioned" }
func (c *GreetCommand) OnMention() bool     { return true }

func (c *GreetCommand) Run(ctx context.Context, data interface{}) error {
	v, ok := data.(*command.MessageContext)
	if !ok {
		return nil
	}
	return bot.Reply(v.Session, v.Event.Message, Greeting)
}

func init() {
	command.RegisterCommand(&GreetCommand{}, middleware.WithCommandLogger())
}

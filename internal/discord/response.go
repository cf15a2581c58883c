package discord

import (
	"fmt"

	"github.com/fadedpez/playtimeshop/internal/types"
)

// ResponseEmoji maps error codes to appropriate emojis
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrLedgerNotFound:      "🔍",
	types.ErrOfferNotFound:       "🛒",
	types.ErrInsufficientBalance: "💸",
	types.ErrStatAtMaximum:       "📈",
	types.ErrGrantFailed:         "📦",
	types.ErrPlayerOffline:       "🎮",
	types.ErrInvalidCommand:      "⛔",
	types.ErrInvalidArgument:     "❗",
	types.ErrPersistenceFailure:  "💾",
	types.ErrInternalError:       "💥",
}

// ErrorMessage renders an error for a player. Only the message of a
// ShopError is shown; other errors are reported generically.
func ErrorMessage(err error) string {
	var shopErr *types.ShopError
	if types.As(err, &shopErr) {
		emoji := ResponseEmoji[shopErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return fmt.Sprintf("%s %s", emoji, shopErr.Message)
	}
	return "❌ Something went wrong, please try again later"
}

// SendMessage posts content to a channel
func SendMessage(s SessionHandler, channelID, content string) error {
	_, err := s.ChannelMessageSend(channelID, content)
	return err
}

// SendErrorMessage posts an error to a channel
func SendErrorMessage(s SessionHandler, channelID string, err error) error {
	return SendMessage(s, channelID, ErrorMessage(err))
}

package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/playtimeshop/internal/discord"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// handleMessage dispatches a chat message to the matching command handler
func (b *Bot) handleMessage(s discord.SessionHandler, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || isSelf(s, m) {
		return
	}

	cmd, ok := ParseCommand(b.prefix, m.Content)
	if !ok {
		return
	}

	if !b.track() {
		return
	}
	defer b.shutdownWg.Done()

	playerID := m.Author.ID
	b.logger.Debug("[BOT] %s from player %s", cmd.Name, playerID)

	var reply string
	switch cmd.Name {
	case CommandHelp:
		reply = b.helpText()
	case CommandPoints:
		reply = b.handlePoints(playerID)
	case CommandBuy:
		reply = b.handleBuy(playerID, cmd.Args)
	default:
		reply = discord.ErrorMessage(types.NewShopError(types.ErrInvalidCommand,
			fmt.Sprintf("Unknown command %q, try `%s help`", cmd.Args, b.prefix)))
	}

	if err := discord.SendMessage(s, m.ChannelID, reply); err != nil {
		b.logger.Warn("[BOT] Failed to reply to player %s: %v", playerID, err)
	}
}

func (b *Bot) handlePoints(playerID string) string {
	points, err := b.shop.ShowPoints(b.ctx, playerID)
	if err != nil {
		b.logger.LogError(err)
		return discord.ErrorMessage(err)
	}
	return fmt.Sprintf("You have %d points", points)
}

func (b *Bot) handleBuy(playerID, offerText string) string {
	result, err := b.shop.Buy(b.ctx, playerID, offerText)
	if err != nil {
		if !types.IsShopError(err, types.ErrOfferNotFound) && !types.IsShopError(err, types.ErrPlayerOffline) {
			b.logger.LogError(err)
		}
		// The reward was handed out even though the debit was not saved
		if result.IsGranted() {
			return PurchaseMessage(result) + "\n" + discord.ErrorMessage(err)
		}
		return discord.ErrorMessage(err)
	}
	return PurchaseMessage(result)
}

// PurchaseMessage renders a purchase outcome for the player
func PurchaseMessage(result entities.PurchaseResult) string {
	switch result.Outcome {
	case entities.OutcomeGranted:
		return fmt.Sprintf("✅ You bought %s. You have %d points left", result.Offer, result.Balance)
	case entities.OutcomeInsufficientBalance:
		return fmt.Sprintf("💸 You don't have enough points: %s costs %d, you have %d. Play more <3",
			result.Offer, result.Required, result.Available)
	case entities.OutcomeStatAtMaximum:
		return fmt.Sprintf("📈 %s would go over its maximum of %d. You still have %d points",
			result.Offer, result.Cap, result.Balance)
	case entities.OutcomeGrantFailed:
		return fmt.Sprintf("📦 %s could not be delivered (%s). You still have %d points",
			result.Offer, result.Reason, result.Balance)
	default:
		return result.String()
	}
}

// helpText lists the reward rate and every offer with the command to buy it
func (b *Bot) helpText() string {
	rate := b.shop.Rate()
	minutes := strconv.FormatFloat(rate.PeriodLength.Minutes(), 'f', -1, 64)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Every %s minutes you win %s points\n\n", minutes, rate.PointsPerPeriod.String())
	sb.WriteString("Commands:\n")
	fmt.Fprintf(&sb, "%s points  show your points\n", b.prefix)
	for _, offer := range b.shop.Catalog().Offers() {
		fmt.Fprintf(&sb, "%s buy %s  %d %s for %d points\n",
			b.prefix, offer.Name, offer.Quantity, offer.Description, offer.Cost)
	}
	return sb.String()
}

package bot

import (
	"strings"
)

// CommandName identifies a chat subcommand
type CommandName string

const (
	CommandHelp    CommandName = "help"
	CommandPoints  CommandName = "points"
	CommandBuy     CommandName = "buy"
	CommandUnknown CommandName = "unknown"
)

// Command is a parsed chat command
type Command struct {
	Name CommandName
	Args string // Offer text for buy, the raw subcommand when unknown
}

// ParseCommand parses "<prefix> <subcommand> [args]". Subcommands match
// case-insensitively by prefix, so "pointsplease" is a points command.
// Text that does not start with prefix, or has nothing after it, is not a
// command.
func ParseCommand(prefix, text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.EqualFold(fields[0], prefix) {
		return Command{}, false
	}

	sub := strings.ToLower(fields[1])
	switch {
	case strings.HasPrefix(sub, string(CommandHelp)):
		return Command{Name: CommandHelp}, true
	case strings.HasPrefix(sub, string(CommandPoints)):
		return Command{Name: CommandPoints}, true
	case strings.HasPrefix(sub, string(CommandBuy)):
		// buy without an offer is ignored
		if len(fields) < 3 {
			return Command{}, false
		}
		return Command{Name: CommandBuy, Args: strings.Join(fields[2:], " ")}, true
	default:
		return Command{Name: CommandUnknown, Args: fields[1]}, true
	}
}

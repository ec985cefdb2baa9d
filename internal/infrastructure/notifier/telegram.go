package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
)

type TelegramNotifier struct {
	bot *telego.Bot
}

func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramNotifier{bot: bot}, nil
}

// SendPriceAlert pushes one alert to the user who owns the favorite.
func (n *TelegramNotifier) SendPriceAlert(ctx context.Context, favorite entity.Favorite, snap value.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "🔔 <b>Price alert</b>\n\n")
	fmt.Fprintf(&b, "📦 <b>%s</b>", favorite.Name)
	if favorite.Grade != "" {
		fmt.Fprintf(&b, " (%s)", favorite.Grade)
	}
	fmt.Fprintf(&b, "\n💰 <b>Current:</b> %s gold\n", formatGold(snap.CurrentPrice))

	if favorite.TargetPrice != nil {
		fmt.Fprintf(&b, "🎯 <b>Target:</b> %s gold\n", formatGold(*favorite.TargetPrice))
	}
	if snap.PreviousPrice != nil && *snap.PreviousPrice > 0 {
		fmt.Fprintf(&b, "📉 <b>Was:</b> %s gold\n", formatGold(*snap.PreviousPrice))
	}

	msg := tu.Message(
		tu.ID(favorite.UserID),
		b.String(),
	).WithParseMode(telego.ModeHTML)

	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText sends a plain text message to a user.
func (n *TelegramNotifier) SendText(ctx context.Context, userID int64, text string) error {
	msg := tu.Message(tu.ID(userID), text)

	_, err := n.bot.SendMessage(ctx, msg)
	return err
}

func formatGold(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

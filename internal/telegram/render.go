package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/fooddetails"
)

// Callback data prefixes. Arguments follow a colon, e.g. "xinc:3".
const (
	cbFood     = "food"
	cbExtraInc = "xinc"
	cbExtraDec = "xdec"
	cbQtyInc   = "qinc"
	cbQtyDec   = "qdec"
	cbFavorite = "fav"
	cbConfirm  = "confirm"
	cbMenu     = "menu"
	cbNoop     = "noop"
)

const (
	textMenuTitle       = "🍽 Cardápio GoRestaurant"
	textMenuEmpty       = "Nenhum prato encontrado."
	textMenuUnavailable = "Cardápio indisponível no momento."
	textFoodUnavailable = "Não foi possível carregar este prato."
	textVisitExpired    = "Essa tela expirou, escolha o prato novamente."
	textOrderConfirmed  = "✅ Pedido confirmado!"
)

var favoriteIcons = map[string]string{
	fooddetails.IconFavorite:       "❤️",
	fooddetails.IconFavoriteBorder: "🤍",
}

func (b *Bot) sendMenu(ctx context.Context, chatID int64, nameLike string) {
	text, kb := b.menu(ctx, nameLike, "")
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.ErrorContext(ctx, "send menu failed", slog.String("error", err.Error()))
	}
}

// editMenu replaces messageID with the menu, headed by notice when set.
func (b *Bot) editMenu(ctx context.Context, chatID int64, messageID int, notice string) error {
	text, kb := b.menu(ctx, "", notice)
	return b.edit(ctx, tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb))
}

func (b *Bot) menu(ctx context.Context, nameLike, notice string) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	if notice != "" {
		sb.WriteString(notice)
		sb.WriteString("\n\n")
	}
	sb.WriteString(textMenuTitle)

	foods, err := b.gateway.ListFoods(ctx, nameLike)
	if err != nil {
		b.logger.ErrorContext(ctx, "list foods failed", slog.String("error", err.Error()))
		sb.WriteString("\n\n")
		sb.WriteString(textMenuUnavailable)
		return sb.String(), tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Tentar novamente", cbMenu)),
		)
	}

	if len(foods) == 0 {
		sb.WriteString("\n\n")
		sb.WriteString(textMenuEmpty)
		return sb.String(), tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Ver cardápio completo", cbMenu)),
		)
	}

	return sb.String(), menuKeyboard(foods, b.format)
}

func menuKeyboard(foods []domain.Food, format fooddetails.Formatter) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(foods))
	for _, f := range foods {
		label := fmt.Sprintf("%s · %s", f.Name, format.Format(f.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbFood+":"+strconv.FormatInt(f.ID, 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) editCard(ctx context.Context, chatID int64, messageID int, v fooddetails.View) {
	text, kb := renderCard(v)
	_ = b.edit(ctx, tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb))
}

// renderCard lays out the details screen: the food, one row per extra, the
// order quantity, then the favorite, confirm and back buttons.
func renderCard(v fooddetails.View) (string, tgbotapi.InlineKeyboardMarkup) {
	if !v.Loaded {
		return textFoodUnavailable, tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Tentar novamente", cbFood+":"+strconv.FormatInt(v.FoodID, 10)),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Cardápio", cbMenu)),
		)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", favoriteIcons[v.FavoriteIcon], v.Name)
	if v.Description != "" {
		fmt.Fprintf(&sb, "%s\n", v.Description)
	}
	fmt.Fprintf(&sb, "\n%s\n", v.FormattedPrice)
	if len(v.Extras) > 0 {
		sb.WriteString("\nAdicionais")
	}
	fmt.Fprintf(&sb, "\n\nTotal do pedido: %s", v.FormattedTotal)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(v.Extras)+4)
	for _, e := range v.Extras {
		id := strconv.FormatInt(e.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", cbExtraDec+":"+id),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s × %d", e.Name, e.Quantity), cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("➕", cbExtraInc+":"+id),
		))
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", cbQtyDec),
			tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(v.Quantity), cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("➕", cbQtyInc),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(favoriteLabel(v), cbFavorite)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✔️ Confirmar pedido", cbConfirm)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Cardápio", cbMenu)),
	)

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func favoriteLabel(v fooddetails.View) string {
	if v.Favorite {
		return favoriteIcons[v.FavoriteIcon] + " Remover dos favoritos"
	}
	return favoriteIcons[v.FavoriteIcon] + " Favoritar"
}

// edit sends an edit, treating "message is not modified" as success.
func (b *Bot) edit(ctx context.Context, c tgbotapi.Chattable) error {
	if _, err := b.api.Send(c); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		b.logger.ErrorContext(ctx, "edit message failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.WarnContext(ctx, "answer callback failed", slog.String("error", err.Error()))
	}
}

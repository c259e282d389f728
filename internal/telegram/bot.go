package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"crisisReplay/internal/replay"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	h      *Handlers
	logger *zap.Logger
}

func NewBot(token, webhookURL string, svc *replay.Service, logger *zap.Logger, opts ...HandlerOption) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	logger.Info("telegram: webhook set", zap.String("url", webhookURL), zap.String("bot", api.Self.UserName))

	return &Bot{api: api, h: NewHandlers(api, svc, logger, opts...), logger: logger}, nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", 400)
		return
	}
	if m := update.Message; m != nil && m.Chat != nil {
		fields := []zap.Field{zap.Int64("chat_id", m.Chat.ID), zap.String("text", m.Text)}
		if m.From != nil {
			fields = append(fields, zap.Int64("from", m.From.ID))
		}
		b.logger.Debug("webhook: message", fields...)
		go b.h.HandleMessage(m)
	} else {
		b.logger.Debug("webhook: non-message update received", zap.Int("update_id", update.UpdateID))
	}
	w.WriteHeader(http.StatusOK)
}

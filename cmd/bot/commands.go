package main

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const replyHelp = "Команды:\n/start <код> - привязать аккаунт ТурГид\n/stop - отключить уведомления"

// linker описывает операции привязки чата, которые нужны обработчику команд.
type linker interface {
	Link(ctx context.Context, code string, chatID int64) string
	Unlink(ctx context.Context, chatID int64) string
}

// reply возвращает ответ бота на сообщение. Пустая строка означает, что отвечать не нужно.
func reply(ctx context.Context, l linker, msg *tgbotapi.Message) string {
	if msg == nil || !msg.IsCommand() {
		return ""
	}
	switch msg.Command() {
	case "start":
		return l.Link(ctx, msg.CommandArguments(), msg.Chat.ID)
	case "stop":
		return l.Unlink(ctx, msg.Chat.ID)
	case "help":
		return replyHelp
	}
	return ""
}

// botSender отправляет уведомления через Bot API.
type botSender struct {
	bot *tgbotapi.BotAPI
}

func (s botSender) Send(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

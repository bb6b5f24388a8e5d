package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/napomni/napomni/plugin/nl/timeparse"
	"github.com/napomni/napomni/plugin/telegram"
	"github.com/napomni/napomni/store"
)

// pendingTTL bounds how long an unconfirmed batch is kept.
const pendingTTL = time.Hour

// handleMessage routes one text message: channel binding from a forward,
// then commands, then free-form reminder text.
func (s *Server) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if fwd := msg.ForwardFromChat; fwd != nil && fwd.Type == "channel" {
		s.bindChannel(ctx, msg, fwd.ID)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		s.handleCommand(ctx, msg, text)
		return
	}

	s.processText(ctx, msg, text)
}

func (s *Server) handleCommand(ctx context.Context, msg *telegram.Message, text string) {
	fields := strings.Fields(text)
	cmd := fields[0]
	// Commands may arrive as "/list@botname" in group chats.
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "/start":
		s.cmdStart(ctx, msg)
	case "/help":
		s.cmdHelp(ctx, msg)
	case "/times":
		s.cmdTimes(ctx, msg, args)
	case "/list":
		s.cmdList(ctx, msg)
	case "/delete":
		s.cmdDelete(ctx, msg, args)
	case "/setchannel":
		s.cmdSetChannel(ctx, msg, args)
	case "/pingchannel":
		s.cmdPingChannel(ctx, msg)
	default:
		s.reply(ctx, msg, "Не знаю такой команды. Список команд: /help")
	}
}

func (s *Server) cmdStart(ctx context.Context, msg *telegram.Message) {
	s.reply(ctx, msg,
		"Привет! Я помогу не забывать о делах.\n\n"+
			"Просто напишите или наговорите, что и когда нужно сделать:\n"+
			"• завтра в 9 сдать отчёт\n"+
			"• 21.12 в 14:48 купить хлеб\n"+
			"• позвонить маме вечером\n\n"+
			"Можно несколько дел сразу — списком или через «и потом».\n\n"+
			"Чтобы напоминания приходили в ваш канал, перешлите мне любой пост из него "+
			"или используйте /setchannel.\n\n"+
			"Настройка времени по умолчанию: /times")
}

func (s *Server) cmdHelp(ctx context.Context, msg *telegram.Message) {
	s.reply(ctx, msg,
		"Команды:\n"+
			"/times — настройки времени (утро / день / вечер)\n"+
			"/list — список запланированных напоминаний\n"+
			"/delete <id> — удалить напоминание\n"+
			"/setchannel — привязать канал для напоминаний\n"+
			"/pingchannel — проверить доступ к каналу")
}

func (s *Server) cmdTimes(ctx context.Context, msg *telegram.Message, args []string) {
	userID := msg.From.ID

	if len(args) == 0 {
		settings := s.userSettings(ctx, userID)
		s.reply(ctx, msg, fmt.Sprintf(
			"Текущие настройки времени:\n"+
				"🌅 Утро: %s\n"+
				"🌞 День: %s\n"+
				"🌆 Вечер: %s\n"+
				"⏰ По умолчанию: %s\n\n"+
				"Изменить:\n/times %s %s %s %s",
			settings.Morning, settings.Day, settings.Evening, settings.Default,
			settings.Morning, settings.Day, settings.Evening, settings.Default))
		return
	}

	if len(args) != 4 {
		s.reply(ctx, msg, "Нужно 4 времени в формате ЧЧ:ММ, например:\n/times 08:00 13:00 17:00 20:00")
		return
	}
	for _, v := range args {
		if !timeparse.ValidHHMM(v) {
			s.reply(ctx, msg, fmt.Sprintf("Неверное время: %s\nФормат ЧЧ:ММ, например:\n/times 08:00 13:00 17:00 20:00", v))
			return
		}
	}

	keys := []string{
		store.UserSettingMorningTime,
		store.UserSettingDayTime,
		store.UserSettingEveningTime,
		store.UserSettingDefaultTime,
	}
	for i, key := range keys {
		if _, err := s.store.UpsertUserSetting(ctx, &store.UserSetting{UserID: userID, Key: key, Value: args[i]}); err != nil {
			s.logger.Error("failed to save user time", "user_id", userID, "key", key, "error", err)
			s.reply(ctx, msg, "Не получилось сохранить настройки, попробуйте позже.")
			return
		}
	}

	s.reply(ctx, msg, fmt.Sprintf(
		"Сохранила ✅\n🌅 Утро: %s\n🌞 День: %s\n🌆 Вечер: %s\n⏰ По умолчанию: %s",
		args[0], args[1], args[2], args[3]))
}

func (s *Server) cmdList(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	status := store.StatusPending
	reminders, err := s.store.ListReminders(ctx, &store.FindReminder{UserID: &userID, Status: &status})
	if err != nil {
		s.logger.Error("failed to list reminders", "user_id", userID, "error", err)
		s.reply(ctx, msg, "Не получилось загрузить список, попробуйте позже.")
		return
	}
	if len(reminders) == 0 {
		s.reply(ctx, msg, "Запланированных напоминаний нет.")
		return
	}

	var b strings.Builder
	b.WriteString("Запланированные напоминания:\n\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "%d) %s — %s\n", r.ID, r.Task, r.ScheduledTime(s.resolver.Location()).Format(timeparse.Layout))
	}
	b.WriteString("\nЧтобы удалить: /delete <id>")
	s.reply(ctx, msg, b.String())
}

func (s *Server) cmdDelete(ctx context.Context, msg *telegram.Message, args []string) {
	if len(args) != 1 {
		s.reply(ctx, msg, "Использование: /delete <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		s.reply(ctx, msg, "id должен быть числом. Пример: /delete 12")
		return
	}

	userID := msg.From.ID
	if err := s.store.DeleteReminder(ctx, &store.DeleteReminder{ID: id, UserID: &userID}); err != nil {
		s.logger.Error("failed to delete reminder", "id", id, "error", err)
		s.reply(ctx, msg, "Не получилось удалить, попробуйте позже.")
		return
	}
	s.reply(ctx, msg, fmt.Sprintf("Удалила напоминание %d ✅", id))
}

func (s *Server) cmdSetChannel(ctx context.Context, msg *telegram.Message, args []string) {
	if len(args) != 1 {
		s.reply(ctx, msg,
			"Использование:\n/setchannel -1001234567890\n\n"+
				"Или просто перешлите мне любой пост из вашего канала.")
		return
	}
	s.bindChannelByRef(ctx, msg, args[0])
}

func (s *Server) cmdPingChannel(ctx context.Context, msg *telegram.Message) {
	channelID, err := s.store.GetUserSetting(ctx, msg.From.ID, store.UserSettingChannelID)
	if err != nil || channelID == "" {
		s.reply(ctx, msg, "Канал не привязан. Перешлите пост из канала или используйте /setchannel.")
		return
	}
	if err := s.Publish(ctx, msg.From.ID, "✅ Проверка связи: напоминания будут приходить сюда."); err != nil {
		s.reply(ctx, msg, "⚠️ Не могу отправить сообщение в канал.\nПроверьте, что бот добавлен в канал как администратор с правом публиковать сообщения.")
		return
	}
	s.reply(ctx, msg, "Отправила проверочное сообщение в канал ✅")
}

// bindChannel stores a forwarded channel as the user's delivery target after
// verifying the bot can post there.
func (s *Server) bindChannel(ctx context.Context, msg *telegram.Message, channelID int64) {
	s.bindChannelByRef(ctx, msg, strconv.FormatInt(channelID, 10))
}

func (s *Server) bindChannelByRef(ctx context.Context, msg *telegram.Message, ref string) {
	target := any(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		target = id
	}

	chat, err := s.bot.GetChat(ctx, target)
	if err != nil {
		s.reply(ctx, msg,
			"⚠️ Не могу подтвердить доступ к этому каналу.\n"+
				"Проверьте:\n• бот добавлен в канал\n• бот администратор\n• есть право «Публиковать сообщения»")
		return
	}

	userID := msg.From.ID
	_, err = s.store.UpsertUserSetting(ctx, &store.UserSetting{
		UserID: userID,
		Key:    store.UserSettingChannelID,
		Value:  strconv.FormatInt(chat.ID, 10),
	})
	if err != nil {
		s.logger.Error("failed to bind channel", "user_id", userID, "error", err)
		s.reply(ctx, msg, "Не получилось сохранить канал, попробуйте позже.")
		return
	}

	title := chat.Title
	if title == "" {
		title = ref
	}
	s.reply(ctx, msg, fmt.Sprintf(
		"Канал «%s» привязан ✅\n"+
			"Напоминания будут приходить туда в нужное время.\n\n"+
			"Настроить время по умолчанию: /times", title))
}

// processText runs the full pipeline on free-form text: segment, resolve,
// then ask for confirmation with an inline keyboard.
func (s *Server) processText(ctx context.Context, msg *telegram.Message, text string) {
	status, err := s.bot.SendMessage(ctx, msg.Chat.ID, "🔄 Анализирую...")
	if err != nil {
		s.logger.Warn("failed to send status message", "error", err)
		return
	}

	seg := s.segmenter.Split(text)
	if seg.Err != "" || len(seg.Items) == 0 {
		s.editStatus(ctx, msg.Chat.ID, status.MessageID, "Не смогла разобрать текст. Попробуйте переформулировать.")
		return
	}

	s.confirmItems(ctx, msg, status.MessageID, seg.Items)
}

// handleVoice downloads and transcribes a voice message, then feeds the text
// into the same pipeline with smart segmentation.
func (s *Server) handleVoice(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if s.transcriber == nil {
		s.reply(ctx, msg, "Распознавание голоса не настроено. Напишите напоминание текстом.")
		return
	}

	status, err := s.bot.SendMessage(ctx, msg.Chat.ID, "🎙️ Распознаю голосовое...")
	if err != nil {
		s.logger.Warn("failed to send status message", "error", err)
		return
	}

	text, err := s.transcribeVoice(ctx, msg.Voice.FileID)
	if err != nil {
		s.logger.Warn("failed to transcribe voice", "error", err)
		s.editStatus(ctx, msg.Chat.ID, status.MessageID, "Не удалось распознать речь. Попробуйте ещё раз.")
		return
	}

	seg := s.segmenter.SplitSmart(ctx, text)
	if seg.Err != "" || len(seg.Items) == 0 {
		s.editStatus(ctx, msg.Chat.ID, status.MessageID, fmt.Sprintf("✅ Распознано:\n%s\n\nНо разобрать на напоминания не получилось.", text))
		return
	}

	s.editStatus(ctx, msg.Chat.ID, status.MessageID, fmt.Sprintf("✅ Распознано:\n%s", text))

	followup, err := s.bot.SendMessage(ctx, msg.Chat.ID, "🔄 Анализирую...")
	if err != nil {
		return
	}
	s.confirmItems(ctx, msg, followup.MessageID, seg.Items)
}

func (s *Server) transcribeVoice(ctx context.Context, fileID string) (string, error) {
	file, err := s.bot.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	body, err := s.bot.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return s.transcriber.Transcribe(ctx, "voice.ogg", body)
}

// confirmItems resolves every segmented item and replaces the status message
// with a confirmation preview and inline keyboard.
func (s *Server) confirmItems(ctx context.Context, msg *telegram.Message, statusMessageID int64, items []string) {
	resolver := s.resolver.WithSettings(s.userSettings(ctx, msg.From.ID))
	results := resolver.ResolveBatch(ctx, items)

	var failures []string
	parsed := make([]timeparse.ParseResult, 0, len(results))
	for i, res := range results {
		if res.Err != "" || res.Datetime == "" {
			failures = append(failures, fmt.Sprintf("%d) %s — не смогла понять дату/время", i+1, items[i]))
			continue
		}
		parsed = append(parsed, res)
	}

	if len(failures) > 0 {
		s.editStatus(ctx, msg.Chat.ID, statusMessageID,
			"Не получилось разобрать часть напоминаний:\n\n"+strings.Join(failures, "\n"))
		return
	}

	token := uuid.NewString()
	s.storePending(token, pendingBatch{
		userID:    msg.From.ID,
		results:   parsed,
		createdAt: time.Now(),
	})

	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Да", CallbackData: "ok:" + token},
			{Text: "❌ Нет", CallbackData: "no:" + token},
		}},
	}

	var preview string
	if len(parsed) == 1 {
		preview = fmt.Sprintf("📝 Задача: %s\n⏰ Дата: %s\n\nСоздать?", parsed[0].Task, parsed[0].Datetime)
	} else {
		var b strings.Builder
		b.WriteString("📝 Я нашла несколько напоминаний:\n\n")
		for i, r := range parsed {
			fmt.Fprintf(&b, "%d) %s — %s\n", i+1, r.Task, r.Datetime)
		}
		b.WriteString("\nСоздать все?")
		preview = b.String()
	}

	if err := s.bot.EditMessageText(ctx, msg.Chat.ID, statusMessageID, preview, keyboard); err != nil {
		s.logger.Warn("failed to show confirmation", "error", err)
	}
}

// handleCallback confirms or discards a pending batch.
func (s *Server) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if err := s.bot.AnswerCallbackQuery(ctx, query.ID, ""); err != nil {
		s.logger.Warn("failed to answer callback", "error", err)
	}
	if query.Message == nil || query.From == nil {
		return
	}

	action, token, ok := strings.Cut(query.Data, ":")
	if !ok {
		return
	}

	batch, found := s.takePending(token, query.From.ID)
	if !found {
		s.editStatus(ctx, query.Message.Chat.ID, query.Message.MessageID,
			"Нет данных для подтверждения. Отправьте напоминание заново.")
		return
	}

	if action == "no" {
		s.editStatus(ctx, query.Message.Chat.ID, query.Message.MessageID, "Ок, отменено ✅")
		return
	}
	if action != "ok" {
		return
	}

	created := 0
	now := time.Now().In(s.resolver.Location())
	for _, res := range batch.results {
		when, err := time.ParseInLocation(timeparse.Layout, res.Datetime, s.resolver.Location())
		if err != nil || !when.After(now) {
			// The instant slipped into the past while waiting for
			// confirmation; skip rather than fire immediately.
			continue
		}
		_, err = s.store.CreateReminder(ctx, &store.Reminder{
			UserID:      batch.userID,
			Task:        res.Task,
			Original:    res.Original,
			ScheduledTs: when.Unix(),
		})
		if err != nil {
			s.logger.Error("failed to create reminder", "user_id", batch.userID, "error", err)
			continue
		}
		created++
	}

	switch {
	case created == 0:
		s.editStatus(ctx, query.Message.Chat.ID, query.Message.MessageID,
			"Время уже в прошлом. Отправьте напоминание заново.")
	case created == 1 && len(batch.results) == 1:
		s.editStatus(ctx, query.Message.Chat.ID, query.Message.MessageID,
			"✅ Запланировано. Посмотреть список: /list")
	default:
		s.editStatus(ctx, query.Message.Chat.ID, query.Message.MessageID,
			fmt.Sprintf("✅ Готово! Запланировала напоминаний: %d.", created))
	}
}

func (s *Server) storePending(token string, batch pendingBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, b := range s.pending {
		if time.Since(b.createdAt) > pendingTTL {
			delete(s.pending, t)
		}
	}
	s.pending[token] = batch
}

// takePending removes and returns a pending batch, checking that the
// confirming user is the one who created it.
func (s *Server) takePending(token string, userID int64) (pendingBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.pending[token]
	if !ok || batch.userID != userID {
		return pendingBatch{}, false
	}
	delete(s.pending, token)
	return batch, true
}

func (s *Server) reply(ctx context.Context, msg *telegram.Message, text string) {
	if _, err := s.bot.SendMessage(ctx, msg.Chat.ID, text); err != nil {
		s.logger.Warn("failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (s *Server) editStatus(ctx context.Context, chatID any, messageID int64, text string) {
	if err := s.bot.EditMessageText(ctx, chatID, messageID, text, nil); err != nil {
		s.logger.Warn("failed to edit status message", "error", err)
	}
}

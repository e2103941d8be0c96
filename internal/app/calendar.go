package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"med_reminder_bot/internal/domain/reminder"

	"gopkg.in/telebot.v3"
)

var weekdayNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// BuildCalendar renders one week of confirmation statistics with color-coded
// days and prev/next navigation buttons. weekOffset 0 is the current week.
func (s *ReminderServiceImpl) BuildCalendar(ctx context.Context, chatID int64, weekOffset int) (string, *telebot.ReplyMarkup, error) {
	now := s.now()
	// Monday-based start of the requested week.
	weekday := (int(now.Weekday()) + 6) % 7
	startOfWeek := now.AddDate(0, 0, -weekday-7*weekOffset)

	var b strings.Builder
	b.WriteString("📅 Статистика приёма\n\n")
	weekEnd := startOfWeek.AddDate(0, 0, 6)
	b.WriteString(fmt.Sprintf("Неделя: %s — %s\n\n", startOfWeek.Format("02.01"), weekEnd.Format("02.01")))

	for dayIdx := 0; dayIdx < 7; dayIdx++ {
		date := startOfWeek.AddDate(0, 0, dayIdx)
		dayKey := reminder.MakeDayKey(chatID, date.Format("2006-01-02"))
		statuses, err := s.statusRepo.ListDay(ctx, dayKey)
		if err != nil {
			return "", nil, fmt.Errorf("failed to list day %s: %w", dayKey, err)
		}

		confirmed := 0
		for _, item := range statuses {
			if item.Status == reminder.StatusConfirmed {
				confirmed++
			}
		}
		var emoji string
		switch {
		case confirmed == 0:
			emoji = "⚫"
		case confirmed == 1:
			emoji = "🔴"
		case confirmed == 2:
			emoji = "🟡"
		default:
			emoji = "🟢"
		}
		b.WriteString(fmt.Sprintf("%s %s (%s) — %d/%d\n",
			emoji, date.Format("02.01"), weekdayNames[(int(date.Weekday())+6)%7], confirmed, s.slotsPerDay))
	}
	b.WriteString("\n⚫ 0 | 🔴 1 | 🟡 2 | 🟢 3+ подтверждённых")

	rm := &telebot.ReplyMarkup{}
	btnPrev := rm.Data("← Предыдущая", CallbackCalendarWeek, strconv.Itoa(weekOffset+1))
	var btnNext telebot.Btn
	if weekOffset <= 0 {
		// Already at the current week; the forward button is inert.
		btnNext = rm.Data("—", CallbackCalendarNoop)
	} else {
		btnNext = rm.Data("Следующая →", CallbackCalendarWeek, strconv.Itoa(weekOffset-1))
	}
	rm.Inline(rm.Row(btnPrev, btnNext))

	return b.String(), rm, nil
}

package app

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Day-period buckets for reminder wording, keyed off the slot's hour.
// Boundaries follow the household convention: morning ends at 14, evening
// starts at 20.
const (
	periodMorning   = "утром"
	periodAfternoon = "днем"
	periodEvening   = "вечером"
	periodUnknown   = "сегодня"
)

// periodName maps a slot label like "09:00" or "TEST-21:07" to a day-period
// word usable inside a sentence.
func periodName(slot string) string {
	timePart := slot
	if idx := strings.LastIndex(slot, "-"); idx >= 0 {
		timePart = slot[idx+1:]
	}
	hourPart, _, ok := strings.Cut(timePart, ":")
	if !ok {
		return periodUnknown
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return periodUnknown
	}
	switch {
	case hour >= 5 && hour < 14:
		return periodMorning
	case hour >= 14 && hour < 20:
		return periodAfternoon
	default:
		return periodEvening
	}
}

var morningTexts = []string{
	"☀️ Доброе утро!\n\nПора принять утреннюю таблетку. Это важно для здоровья! 💊",
	"💊 Привет!\n\nНе забудь про утреннюю таблетку, пожалуйста.",
}

var afternoonTexts = []string{
	"🌸 Привет!\n\nПора принять дневную таблетку. Не забудь, пожалуйста! 💊",
	"💊 Напоминаю про дневную таблетку. Береги себя!",
}

var eveningTexts = []string{
	"🌙 Добрый вечер!\n\nПора принять вечернюю таблетку. 💊",
	"✨ Не забудь вечернюю таблетку, пожалуйста. Это важно! 💊",
}

var nagTexts = []string{
	"💊 Ты ещё не ответил(а)!\n\nПринята ли таблетка %s? Дай знать, пожалуйста!",
	"🔔 Напоминаю!\n\nНе забудь подтвердить, что таблетка %s принята.",
	"💊 Отзовись, пожалуйста!\n\nПринята ли таблетка %s? Это важно!",
}

var confirmTexts = []string{
	"✅ Отлично! Таблетка принята. 💊",
	"✅ Супер! Спасибо, что позаботился(ась) о своём здоровье!",
	"✅ Молодец! Таблетка принята. 💊",
}

const skipText = "😔 Таблетка пропущена...\n\n" +
	"Пожалуйста, постарайся не забывать! Это важно для здоровья. ❤️"

func pickText(variants []string) string {
	return variants[rand.Intn(len(variants))]
}

// nagText returns a randomized follow-up message for an unresolved slot.
func nagText(slot string) string {
	return fmt.Sprintf(pickText(nagTexts), periodName(slot))
}

// testReminderText returns the message for a user-triggered test reminder.
func testReminderText(slot string) string {
	return fmt.Sprintf("🧪 Тестовое напоминание!\n\n💊 Принята ли таблетка %s?", periodName(slot))
}

// reminderText returns a randomized reminder message for the slot's period.
func reminderText(slot string) string {
	switch periodName(slot) {
	case periodMorning:
		return pickText(morningTexts)
	case periodAfternoon:
		return pickText(afternoonTexts)
	default:
		return pickText(eveningTexts)
	}
}

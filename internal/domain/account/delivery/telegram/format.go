package telegram

import (
	"fmt"
	"strings"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/entities"
)

// FormatAccounts renders the /list_accounts reply
func FormatAccounts(accounts []entities.AccountInfo) string {
	if len(accounts) == 0 {
		return "📋 Нет добавленных аккаунтов."
	}

	var b strings.Builder
	b.WriteString("📋 Список аккаунтов:\n\n")
	for _, acc := range accounts {
		status := "🔴 Неактивен"
		if acc.Live {
			status = "🟢 Активен"
		}
		chat := "⚠️ Не привязан"
		if acc.Destination != nil {
			chat = "✅ Привязан"
		}

		fmt.Fprintf(&b, "• %s - %s\n", acc.Name, status)
		fmt.Fprintf(&b, "  📞 %s\n", acc.Phone)
		fmt.Fprintf(&b, "  🔑 Авторизация: %s\n", acc.AuthState)
		fmt.Fprintf(&b, "  💬 Диалогов: %d\n", acc.DialogCount)
		fmt.Fprintf(&b, "  📊 Чат: %s\n", chat)
		if acc.Destination != nil {
			fmt.Fprintf(&b, "  🆔 Chat ID: %d\n", acc.Destination.ChatID)
			if acc.Destination.ThreadID != 0 {
				fmt.Fprintf(&b, "  🧵 Thread ID: %d\n", acc.Destination.ThreadID)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAccountStats renders the /stats <name> reply
func FormatAccountStats(stats entities.AccountStats) string {
	return fmt.Sprintf(
		"📊 Статистика %s\n\n📅 Сегодня (%s):\n💬 Новых диалогов: %d\n📝 Всего диалогов: %d",
		stats.Name, stats.Day, stats.NewToday, stats.TotalDialogs,
	)
}

// FormatSummary renders the /stats reply without arguments
func FormatSummary(summary entities.Summary) string {
	if len(summary.Accounts) == 0 {
		return "📊 Нет аккаунтов для статистики."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Общая статистика по всем аккаунтам\n📅 Дата: %s\n\n", summary.Day)
	for _, acc := range summary.Accounts {
		status := "🔴"
		if acc.Live {
			status = "🟢"
		}
		fmt.Fprintf(&b, "%s %s\n", status, acc.Name)
		fmt.Fprintf(&b, "   💬 Новых сегодня: %d\n", acc.NewToday)
		fmt.Fprintf(&b, "   📝 Всего диалогов: %d\n\n", acc.TotalDialogs)
	}
	b.WriteString("━━━━━━━━━━━━━━━\n")
	b.WriteString("📈 ИТОГО:\n")
	fmt.Fprintf(&b, "💬 Новых сегодня: %d\n", summary.TotalNew)
	fmt.Fprintf(&b, "📝 Всего диалогов: %d\n", summary.TotalDialogs)
	fmt.Fprintf(&b, "👥 Аккаунтов: %d", len(summary.Accounts))
	return b.String()
}

// FormatAdmins renders the /list_admins reply
func FormatAdmins(admins []entities.Admin) string {
	var b strings.Builder
	b.WriteString("👥 Список администраторов:\n")
	for _, admin := range admins {
		marker := "•"
		if admin.Main {
			marker = "⭐"
		}
		fmt.Fprintf(&b, "\n%s %d", marker, admin.ID)
	}
	return b.String()
}

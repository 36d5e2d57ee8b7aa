package telegram

// Command is one operator command
type Command struct {
	Name  string
	Usage string
}

// Operator commands
var (
	CommandStart         = Command{Name: "/start"}
	CommandHelp          = Command{Name: "/help"}
	CommandAddAccount    = Command{Name: "/add_account", Usage: "/add_account <название> <api_id> <api_hash> <телефон>"}
	CommandLogin         = Command{Name: "/login", Usage: "/login <название>"}
	CommandCode          = Command{Name: "/code", Usage: "/code <название> <код>"}
	CommandPassword      = Command{Name: "/password", Usage: "/password <название> <пароль>"}
	CommandRemoveAccount = Command{Name: "/remove_account", Usage: "/remove_account <название>"}
	CommandAssignChat    = Command{Name: "/assign_chat", Usage: "/assign_chat <название> <chat_id> [thread_id]"}
	CommandUnassignChat  = Command{Name: "/unassign_chat", Usage: "/unassign_chat <название>"}
	CommandListAccounts  = Command{Name: "/list_accounts"}
	CommandStats         = Command{Name: "/stats", Usage: "/stats [название]"}
	CommandAddAdmin      = Command{Name: "/add_admin", Usage: "/add_admin <user_id>"}
	CommandListAdmins    = Command{Name: "/list_admins"}
)

const helpText = `🤖 Бот управления аккаунтами

Управление аккаунтами:
/add_account <название> <api_id> <api_hash> <телефон> - добавить аккаунт
/login <название> - начать авторизацию
/code <название> <код> - ввести код подтверждения
/password <название> <пароль> - ввести пароль 2FA
/remove_account <название> - удалить аккаунт

Управление чатами:
/assign_chat <название> <chat_id> [thread_id] - привязать чат или топик
  Пример: /assign_chat Ваня -1001234567890 52
/unassign_chat <название> - отвязать чат

Информация:
/list_accounts - список аккаунтов
/stats [название] - статистика по аккаунту или общая

Администраторы:
/add_admin <user_id> - добавить админа (только главный админ)
/list_admins - список администраторов`

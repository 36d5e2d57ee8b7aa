package telegram

import (
	"github.com/gotd/td/tgerr"
)

// rejectedCredentialErrors are RPC errors that no retry can fix
var rejectedCredentialErrors = []string{
	"PHONE_NUMBER_BANNED",
	"PHONE_NUMBER_INVALID",
	"API_ID_INVALID",
	"API_ID_PUBLISHED_FLOOD",
	"AUTH_KEY_UNREGISTERED",
	"SESSION_REVOKED",
	"PHONE_CODE_INVALID",
	"PHONE_CODE_EXPIRED",
	"PASSWORD_HASH_INVALID",
}

// isRejectedCredentials reports whether Telegram refused the account's credentials
func isRejectedCredentials(err error) bool {
	return tgerr.Is(err, rejectedCredentialErrors...)
}

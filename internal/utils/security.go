package utils

import "strings"

// MaskPhoneNumber masks a phone number for logs and operator replies.
// Separators are dropped, then the first 3 and last 4 characters stay visible.
//
// Examples:
//   - "+1234567890" -> "+12****7890"
//   - "+7 (999) 123-45-67" -> "+79****4567"
//   - "+123456" -> "****"
func MaskPhoneNumber(phone string) string {
	phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)

	if len(phone) <= 6 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-4:]
}

// MaskSecret keeps the first 4 characters of an API secret
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

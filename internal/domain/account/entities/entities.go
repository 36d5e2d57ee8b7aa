package entities

import (
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// AccountInfo is an operator view of one account
type AccountInfo struct {
	Name        string              `json:"name"`
	Phone       string              `json:"phone"`
	AuthState   domain.AuthState    `json:"authState"`
	Worker      string              `json:"worker"`
	Live        bool                `json:"live"`
	Destination *domain.Destination `json:"destination,omitempty"`
	DialogCount int                 `json:"dialogCount"`
}

// AccountStats holds statistics of one account
type AccountStats struct {
	Name         string             `json:"name"`
	Day          string             `json:"day"`
	NewToday     int                `json:"newToday"`
	TotalDialogs int                `json:"totalDialogs"`
	Live         bool               `json:"live"`
	Daily        []domain.DailyStat `json:"daily,omitempty"`
}

// Summary holds statistics of all accounts
type Summary struct {
	Day          string         `json:"day"`
	Accounts     []AccountStats `json:"accounts"`
	TotalNew     int            `json:"totalNew"`
	TotalDialogs int            `json:"totalDialogs"`
}

// Admin is one operator with command privileges
type Admin struct {
	ID   int64 `json:"id"`
	Main bool  `json:"main"`
}

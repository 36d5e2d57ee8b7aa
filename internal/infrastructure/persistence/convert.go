package persistence

import (
	"sort"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

type rows struct {
	accounts []AccountModel
	dialogs  []DialogModel
	stats    []DailyStatModel
	admins   []AdminModel
}

// toRows flattens a snapshot into table rows
func toRows(snapshot *domain.Snapshot) rows {
	var r rows

	for _, acc := range snapshot.Accounts {
		model := AccountModel{
			Name:        acc.Name,
			APIID:       acc.Credentials.APIID,
			APIHash:     acc.Credentials.APIHash,
			Phone:       acc.Credentials.Phone,
			AuthState:   string(acc.AuthState),
			Initialized: acc.Initialized,
		}
		if acc.Destination != nil {
			chatID := acc.Destination.ChatID
			model.DestChatID = &chatID
			model.DestThreadID = acc.Destination.ThreadID
		}
		r.accounts = append(r.accounts, model)

		for i, id := range acc.Dialogs {
			r.dialogs = append(r.dialogs, DialogModel{AccountName: acc.Name, ConversationID: id, Position: i})
		}
		for _, stat := range acc.DailyStats {
			r.stats = append(r.stats, DailyStatModel{AccountName: acc.Name, Day: stat.Day, Count: stat.Count})
		}
	}

	for _, id := range snapshot.Admins {
		r.admins = append(r.admins, AdminModel{UserID: id})
	}

	return r
}

// fromRows rebuilds a snapshot from table rows
func fromRows(r rows) *domain.Snapshot {
	byName := make(map[string]*domain.AccountSnapshot, len(r.accounts))
	snapshot := &domain.Snapshot{}

	for _, model := range r.accounts {
		acc := domain.AccountSnapshot{
			Name: model.Name,
			Credentials: domain.Credentials{
				APIID:   model.APIID,
				APIHash: model.APIHash,
				Phone:   model.Phone,
			},
			AuthState:   domain.AuthState(model.AuthState),
			Initialized: model.Initialized,
		}
		if model.DestChatID != nil {
			acc.Destination = &domain.Destination{ChatID: *model.DestChatID, ThreadID: model.DestThreadID}
		}
		snapshot.Accounts = append(snapshot.Accounts, acc)
	}
	for i := range snapshot.Accounts {
		byName[snapshot.Accounts[i].Name] = &snapshot.Accounts[i]
	}

	dialogs := append([]DialogModel(nil), r.dialogs...)
	sort.SliceStable(dialogs, func(i, j int) bool { return dialogs[i].Position < dialogs[j].Position })
	for _, d := range dialogs {
		if acc, ok := byName[d.AccountName]; ok {
			acc.Dialogs = append(acc.Dialogs, d.ConversationID)
		}
	}

	for _, s := range r.stats {
		if acc, ok := byName[s.AccountName]; ok {
			acc.DailyStats = append(acc.DailyStats, domain.DailyStat{Day: s.Day, Count: s.Count})
		}
	}
	for i := range snapshot.Accounts {
		stats := snapshot.Accounts[i].DailyStats
		sort.Slice(stats, func(a, b int) bool { return stats[a].Day < stats[b].Day })
	}

	for _, admin := range r.admins {
		snapshot.Admins = append(snapshot.Admins, admin.UserID)
	}
	sort.Slice(snapshot.Admins, func(i, j int) bool { return snapshot.Admins[i] < snapshot.Admins[j] })

	return snapshot
}

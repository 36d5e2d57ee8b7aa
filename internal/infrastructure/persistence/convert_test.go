package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

func TestRows_RoundTrip(t *testing.T) {
	snapshot := &domain.Snapshot{
		Accounts: []domain.AccountSnapshot{
			{
				Name:        "alpha",
				Credentials: domain.Credentials{APIID: 1, APIHash: "h", Phone: "+7000"},
				AuthState:   domain.AuthAuthorized,
				Destination: &domain.Destination{ChatID: -100123, ThreadID: 7},
				Initialized: true,
				Dialogs:     []int64{30, 10, 20},
				DailyStats:  []domain.DailyStat{{Day: "2024-05-02", Count: 1}, {Day: "2024-05-01", Count: 4}},
			},
			{
				Name:        "beta",
				Credentials: domain.Credentials{APIID: 2, APIHash: "g", Phone: "+7001"},
				AuthState:   domain.AuthUnauthorized,
			},
		},
		Admins: []int64{42, 7},
	}

	r := toRows(snapshot)
	require.Len(t, r.accounts, 2)
	require.Len(t, r.dialogs, 3)
	assert.Nil(t, r.accounts[1].DestChatID)

	// rows come back from the database in arbitrary order
	r.dialogs[0], r.dialogs[2] = r.dialogs[2], r.dialogs[0]

	got := fromRows(r)
	require.Len(t, got.Accounts, 2)

	alpha := got.Accounts[0]
	assert.Equal(t, []int64{30, 10, 20}, alpha.Dialogs)
	assert.Equal(t, &domain.Destination{ChatID: -100123, ThreadID: 7}, alpha.Destination)
	assert.Equal(t, "2024-05-01", alpha.DailyStats[0].Day)
	assert.Nil(t, got.Accounts[1].Destination)
	assert.Equal(t, []int64{7, 42}, got.Admins)
}

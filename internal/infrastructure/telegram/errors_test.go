package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gotd/td/tgerr"
)

func TestIsRejectedCredentials(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"banned", tgerr.New(400, "PHONE_NUMBER_BANNED"), true},
		{"wrapped revoked", fmt.Errorf("rpc: %w", tgerr.New(401, "SESSION_REVOKED")), true},
		{"flood wait", tgerr.New(420, "FLOOD_WAIT_30"), false},
		{"network", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRejectedCredentials(tt.err); got != tt.want {
				t.Errorf("isRejectedCredentials() = %v, want %v", got, tt.want)
			}
		})
	}
}

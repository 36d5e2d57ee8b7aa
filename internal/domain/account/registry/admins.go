package registry

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	accerrors "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/errors"
)

// AdminSet holds operators allowed to manage accounts.
// The main admin comes from configuration and cannot be removed.
type AdminSet struct {
	mu        sync.RWMutex
	mainAdmin int64
	admins    map[int64]struct{}
	logger    zerolog.Logger
}

// NewAdminSet creates a set containing only the main admin
func NewAdminSet(mainAdmin int64, logger zerolog.Logger) *AdminSet {
	return &AdminSet{
		mainAdmin: mainAdmin,
		admins:    make(map[int64]struct{}),
		logger:    logger.With().Str("component", "admin_set").Logger(),
	}
}

// IsMain reports whether userID is the main admin
func (s *AdminSet) IsMain(userID int64) bool {
	return userID == s.mainAdmin
}

// IsAdmin reports whether userID may run operator commands
func (s *AdminSet) IsAdmin(userID int64) bool {
	if s.IsMain(userID) {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[userID]
	return ok
}

// Add grants admin rights. Returns false when userID already had them.
func (s *AdminSet) Add(userID int64) (bool, error) {
	if userID <= 0 {
		return false, accerrors.ErrInvalidAdminID
	}
	if s.IsMain(userID) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[userID]; ok {
		return false, nil
	}
	s.admins[userID] = struct{}{}
	s.logger.Info().Int64("user_id", userID).Msg("admin added")
	return true, nil
}

// List returns all admins including the main one, sorted
func (s *AdminSet) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.admins)+1)
	ids = append(ids, s.mainAdmin)
	for id := range s.admins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns the admins added at runtime
func (s *AdminSet) Snapshot() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.admins))
	for id := range s.admins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Restore replaces runtime admins with loaded ones
func (s *AdminSet) Restore(ids []int64) {
	admins := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id > 0 && id != s.mainAdmin {
			admins[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.admins = admins
	s.mu.Unlock()
}

package registry

import "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"

// State combines accounts and admins into the durable snapshot
type State struct {
	registry *Registry
	admins   *AdminSet
}

// NewState creates a snapshot source over the registry and admin set
func NewState(registry *Registry, admins *AdminSet) *State {
	return &State{registry: registry, admins: admins}
}

// Snapshot returns a point-in-time copy of all durable state
func (s *State) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Accounts: s.registry.Snapshot(),
		Admins:   s.admins.Snapshot(),
	}
}

// Restore loads a snapshot into the registry and admin set
func (s *State) Restore(snapshot *domain.Snapshot) {
	if snapshot == nil {
		return
	}
	s.registry.Restore(snapshot.Accounts)
	s.admins.Restore(snapshot.Admins)
}

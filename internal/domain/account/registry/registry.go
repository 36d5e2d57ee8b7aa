package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	accerrors "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/errors"
)

// DetachFunc stops whatever runs on behalf of an account before it is removed
type DetachFunc func(ctx context.Context, name string) error

// PurgeFunc drops derived state of a removed account
type PurgeFunc func(name string)

// Option configures Registry
type Option func(*Registry)

// WithClock overrides the time source used for daily statistics
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

type record struct {
	account domain.Account
	dialogs map[int64]struct{}
	order   []int64
	stats   map[string]int
}

func newRecord(name string, creds domain.Credentials) *record {
	return &record{
		account: domain.Account{
			Name:        name,
			Credentials: creds,
			AuthState:   domain.AuthUnauthorized,
		},
		dialogs: make(map[int64]struct{}),
		stats:   make(map[string]int),
	}
}

func (r *record) addDialog(id int64) bool {
	if _, exists := r.dialogs[id]; exists {
		return false
	}
	r.dialogs[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

func (r *record) view() domain.Account {
	acc := r.account
	if r.account.Destination != nil {
		dest := *r.account.Destination
		acc.Destination = &dest
	}
	acc.DialogCount = len(r.order)
	return acc
}

// Registry is the authoritative table of accounts and their known conversations
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record

	hooksMu   sync.RWMutex
	detachers []DetachFunc
	purgers   []PurgeFunc

	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an empty registry. Calendar days are computed in loc.
func New(loc *time.Location, logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		records: make(map[string]*record),
		loc:     loc,
		now:     time.Now,
		logger:  logger.With().Str("component", "account_registry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnDetach registers a hook run before an account is removed
func (r *Registry) OnDetach(fn DetachFunc) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.detachers = append(r.detachers, fn)
}

// OnPurge registers a hook run after an account is removed
func (r *Registry) OnPurge(fn PurgeFunc) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.purgers = append(r.purgers, fn)
}

func (r *Registry) today() string {
	return domain.DayKey(r.now(), r.loc)
}

// Today returns the current calendar day key in the report zone
func (r *Registry) Today() string {
	return r.today()
}

// get must be called with mu held
func (r *Registry) get(op, name string) (*record, error) {
	rec, ok := r.records[name]
	if !ok {
		return nil, domain.E(domain.KindUnknownAccount, op, name, domain.ErrAccountNotFound)
	}
	return rec, nil
}

// AddAccount registers a new unauthorized account
func (r *Registry) AddAccount(name string, creds domain.Credentials) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if creds.APIID == 0 || creds.APIHash == "" || creds.Phone == "" {
		return accerrors.ErrInvalidCredentials
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; exists {
		return domain.E(domain.KindDuplicateAccount, "add_account", name, domain.ErrAccountAlreadyExists)
	}

	r.records[name] = newRecord(name, creds)
	r.logger.Info().Str("account", name).Msg("account added")
	return nil
}

// RemoveAccount stops everything running for the account, then deletes it with all derived state.
// The account is kept when anything attached to it fails to stop.
func (r *Registry) RemoveAccount(ctx context.Context, name string) error {
	r.mu.RLock()
	_, err := r.get("remove_account", name)
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	r.hooksMu.RLock()
	detachers := append([]DetachFunc(nil), r.detachers...)
	purgers := append([]PurgeFunc(nil), r.purgers...)
	r.hooksMu.RUnlock()

	for _, detach := range detachers {
		if err := detach(ctx, name); err != nil {
			r.logger.Warn().Err(err).Str("account", name).Msg("detach hook failed, account kept")
			kind := domain.KindOf(err)
			if kind == domain.KindUnknown {
				kind = domain.KindTransport
			}
			return domain.E(kind, "remove_account", name, err)
		}
	}

	r.mu.Lock()
	if _, err := r.get("remove_account", name); err != nil {
		r.mu.Unlock()
		return err
	}
	delete(r.records, name)
	r.mu.Unlock()

	for _, purge := range purgers {
		purge(name)
	}

	r.logger.Info().Str("account", name).Msg("account removed")
	return nil
}

// AssignDestination sets where reports for the account are delivered
func (r *Registry) AssignDestination(name string, dest domain.Destination) error {
	if dest.ChatID == 0 {
		return accerrors.ErrInvalidDestination
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get("assign_destination", name)
	if err != nil {
		return err
	}
	rec.account.Destination = &dest
	return nil
}

// UnassignDestination clears the report destination
func (r *Registry) UnassignDestination(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get("unassign_destination", name)
	if err != nil {
		return err
	}
	rec.account.Destination = nil
	return nil
}

// Destination returns a copy of the report destination or nil when unset
func (r *Registry) Destination(name string) (*domain.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("destination", name)
	if err != nil {
		return nil, err
	}
	if rec.account.Destination == nil {
		return nil, nil
	}
	dest := *rec.account.Destination
	return &dest, nil
}

// RecordNewDialog inserts the conversation if unknown and counts it for today.
// Returns true only when the conversation was inserted by this call.
func (r *Registry) RecordNewDialog(name string, conversationID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get("record_new_dialog", name)
	if err != nil {
		return false, err
	}
	if !rec.addDialog(conversationID) {
		return false, nil
	}
	rec.stats[r.today()]++
	return true, nil
}

// SeedDialogs bulk-inserts pre-existing conversations once and marks the account initialized.
// Returns false without changes when the account is already initialized.
func (r *Registry) SeedDialogs(name string, conversationIDs []int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get("seed_dialogs", name)
	if err != nil {
		return false, err
	}
	if rec.account.Initialized {
		return false, nil
	}
	for _, id := range conversationIDs {
		rec.addDialog(id)
	}
	rec.account.Initialized = true
	return true, nil
}

// IsInitialized reports whether backfill has completed for the account
func (r *Registry) IsInitialized(name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("is_initialized", name)
	if err != nil {
		return false, err
	}
	return rec.account.Initialized, nil
}

// HasDialog reports whether the conversation is known for the account
func (r *Registry) HasDialog(name string, conversationID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("has_dialog", name)
	if err != nil {
		return false, err
	}
	_, ok := rec.dialogs[conversationID]
	return ok, nil
}

// Credentials returns the stored credentials
func (r *Registry) Credentials(name string) (domain.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("credentials", name)
	if err != nil {
		return domain.Credentials{}, err
	}
	return rec.account.Credentials, nil
}

// AuthState returns the authorization state
func (r *Registry) AuthState(name string) (domain.AuthState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("auth_state", name)
	if err != nil {
		return "", err
	}
	return rec.account.AuthState, nil
}

// SetAuthState updates the authorization state
func (r *Registry) SetAuthState(name string, state domain.AuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get("set_auth_state", name)
	if err != nil {
		return err
	}
	if rec.account.AuthState != state {
		r.logger.Debug().
			Str("account", name).
			Str("from", string(rec.account.AuthState)).
			Str("to", string(state)).
			Msg("auth state changed")
	}
	rec.account.AuthState = state
	return nil
}

// Account returns a view of one account
func (r *Registry) Account(name string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("account", name)
	if err != nil {
		return domain.Account{}, err
	}
	return rec.view(), nil
}

// Accounts returns views of all accounts sorted by name
func (r *Registry) Accounts() []domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(r.records))
	for _, name := range r.sortedNames() {
		accounts = append(accounts, r.records[name].view())
	}
	return accounts
}

// Names returns account names sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

// Count returns the number of accounts
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// TodayCount returns the number of conversations first seen today
func (r *Registry) TodayCount(name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("today_count", name)
	if err != nil {
		return 0, err
	}
	return rec.stats[r.today()], nil
}

// DayCount returns the number of conversations first seen on day
func (r *Registry) DayCount(name, day string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("day_count", name)
	if err != nil {
		return 0, err
	}
	return rec.stats[day], nil
}

// DailyStats returns per-day counts sorted by day
func (r *Registry) DailyStats(name string) ([]domain.DailyStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.get("daily_stats", name)
	if err != nil {
		return nil, err
	}
	return sortedStats(rec.stats), nil
}

// RollOver resets every account's statistics to a single entry for today
func (r *Registry) RollOver() {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.today()
	for _, rec := range r.records {
		rec.stats = map[string]int{today: rec.stats[today]}
	}
	r.logger.Info().Str("day", today).Int("accounts", len(r.records)).Msg("daily statistics rolled over")
}

// Snapshot returns the durable form of all accounts
func (r *Registry) Snapshot() []domain.AccountSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]domain.AccountSnapshot, 0, len(r.records))
	for _, name := range r.sortedNames() {
		rec := r.records[name]
		acc := rec.view()
		accounts = append(accounts, domain.AccountSnapshot{
			Name:        acc.Name,
			Credentials: acc.Credentials,
			AuthState:   acc.AuthState,
			Destination: acc.Destination,
			Initialized: acc.Initialized,
			Dialogs:     append([]int64(nil), rec.order...),
			DailyStats:  sortedStats(rec.stats),
		})
	}
	return accounts
}

// Restore replaces the registry contents with a loaded snapshot.
// Challenges do not survive a restart, so pending states fall back to unauthorized.
func (r *Registry) Restore(accounts []domain.AccountSnapshot) {
	records := make(map[string]*record, len(accounts))
	for _, snap := range accounts {
		rec := newRecord(snap.Name, snap.Credentials)
		rec.account.AuthState = snap.AuthState
		if snap.AuthState == "" || snap.AuthState.Pending() {
			rec.account.AuthState = domain.AuthUnauthorized
		}
		if snap.Destination != nil {
			dest := *snap.Destination
			rec.account.Destination = &dest
		}
		rec.account.Initialized = snap.Initialized
		for _, id := range snap.Dialogs {
			rec.addDialog(id)
		}
		for _, stat := range snap.DailyStats {
			rec.stats[stat.Day] = stat.Count
		}
		records[snap.Name] = rec
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()

	r.logger.Info().Int("accounts", len(records)).Msg("registry restored")
}

// sortedNames must be called with mu held
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedStats(stats map[string]int) []domain.DailyStat {
	result := make([]domain.DailyStat, 0, len(stats))
	for day, count := range stats {
		result = append(result, domain.DailyStat{Day: day, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day < result[j].Day })
	return result
}

// ValidateName checks an account name
func ValidateName(name string) error {
	if name == "" {
		return accerrors.ErrEmptyName
	}
	if len(name) > 64 {
		return accerrors.ErrInvalidName
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return accerrors.ErrInvalidName
		}
	}
	return nil
}

package chat

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry maps registered names to their outbound channels and tracks the
// set of channels that receive broadcasts. Both structures change together
// under one lock, so readers never see a name without its channel or a
// channel without its name.
type Registry struct {
	mu        sync.RWMutex
	names     map[string]*Outbound
	broadcast map[*Outbound]string

	maxNameLength int
	logger        *slog.Logger
}

func NewRegistry(maxNameLength int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		names:         make(map[string]*Outbound),
		broadcast:     make(map[*Outbound]string),
		maxNameLength: maxNameLength,
		logger:        logger,
	}
}

// TryRegister claims name for out. It fails with ErrNameEmpty, ErrNameTaken
// or ErrNameTooLong; exactly one of several concurrent callers using the
// same name succeeds.
func (r *Registry) TryRegister(name string, out *Outbound) error {
	if name == "" {
		return ErrNameEmpty
	}
	if r.maxNameLength > 0 && len(name) > r.maxNameLength {
		return ErrNameTooLong
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[name]; exists {
		return ErrNameTaken
	}
	r.names[name] = out
	r.broadcast[out] = name
	ConnectedClients.Set(float64(len(r.names)))

	r.logger.Info("user registered", "name", name)
	return nil
}

// Unregister releases name and removes its channel from the broadcast set.
// Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, ok := r.names[name]
	if !ok {
		return
	}
	delete(r.names, name)
	delete(r.broadcast, out)
	ConnectedClients.Set(float64(len(r.names)))

	r.logger.Info("user left", "name", name)
}

func (r *Registry) Lookup(name string) (*Outbound, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.names[name]
	return out, ok
}

// SnapshotNames returns the registered names in sorted order.
func (r *Registry) SnapshotNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

// BroadcastChannels returns every registered outbound channel.
func (r *Registry) BroadcastChannels() []*Outbound {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channelsLocked()
}

// View calls fn with the names and channels of a single consistent state.
// Membership cannot change until fn returns, so fn must not block and must
// not call back into the Registry's mutating methods.
func (r *Registry) View(fn func(names []string, outs []*Outbound)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.sortedNamesLocked(), r.channelsLocked())
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) channelsLocked() []*Outbound {
	outs := make([]*Outbound, 0, len(r.broadcast))
	for out := range r.broadcast {
		outs = append(outs, out)
	}
	return outs
}

package settings

// Adapter moves settings between a manager and a persistent store. An
// adapter binds to exactly one manager for its lifetime; rebinding fails
// with ErrAdapterBound.
//
// Adapters are forbidden from mutating the manager/group/setting graph
// except through the LoadSetting contract: set the setting's value via
// Deserialize, or restore its default and emit a warning feedback event when
// deserialization fails. Deserialization failure is never fatal to the host.
type Adapter interface {
	// Bind attaches the adapter to m. It is one-shot.
	Bind(m *Manager) error
	// LoadSetting populates s from the store. Failures degrade to the
	// setting's default value plus a warning feedback event.
	LoadSetting(s Setting)
	// SaveDirty persists every currently dirty setting across every known
	// group. Cells that fail to serialize are reported in the returned
	// error; the remaining cells are still persisted.
	SaveDirty() error
	// DeleteGroup removes all persisted values of one group from the store.
	// It does not touch in-memory settings. Backend I/O failures propagate
	// to the caller.
	DeleteGroup(groupKey string) error
	// DeleteAll removes every persisted value from the store. It does not
	// touch in-memory settings. Backend I/O failures propagate.
	DeleteAll() error
	// DeleteUnreferenced removes persisted keys of g's group that have no
	// corresponding live setting. It fails with ErrNilGroup when g is nil.
	DeleteUnreferenced(g *Group) error
}

// AdapterBase implements the one-shot manager binding shared by adapter
// implementations. Embed it and implement the rest of the Adapter contract.
type AdapterBase struct {
	manager *Manager
}

// Bind attaches the adapter to m. Binding twice, or to a nil manager, fails.
func (b *AdapterBase) Bind(m *Manager) error {
	if m == nil {
		return ErrNilManager
	}
	if b.manager != nil {
		return ErrAdapterBound
	}
	b.manager = m
	return nil
}

// Manager returns the manager the adapter is bound to, or nil before Bind.
func (b *AdapterBase) Manager() *Manager {
	return b.manager
}

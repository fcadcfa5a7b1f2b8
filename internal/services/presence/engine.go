package presence

import (
	"log/slog"
	"sync"

	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/registry"
)

// SessionIndex reports live-session state maintained by the online
// coordinator. The engine consults it read-mostly; only the current
// channel is written through it (a presence SET names the channel).
type SessionIndex interface {
	AccountOnline(id model.AccountID) bool
	Channel(id model.GameAccountID) (model.EntityID, bool)
	SetChannel(id model.GameAccountID, channel model.EntityID) bool
}

// CharacterRegistry resolves a character reference to its presence-visible
// attributes. Consulted read-only.
type CharacterRegistry interface {
	ToonByEntityID(id model.EntityID) (*model.Toon, bool)
}

// fieldAddr is the dispatch key for the handler tables: everything in a
// FieldKey except the repeated-field index
type fieldAddr struct {
	program model.ProgramID
	group   uint32
	field   uint32
}

func addrOf(key model.FieldKey) fieldAddr {
	return fieldAddr{program: key.Program, group: key.Group, field: key.Field}
}

type accountReadFn func(e *Engine, account *model.Account) (model.Variant, bool)
type gameReadFn func(e *Engine, gameAccount *model.GameAccount) (model.Variant, bool)
type gameWriteFn func(e *Engine, gameAccount *model.GameAccount, op model.FieldOperation) error

// Engine dispatches presence queries and updates per entity and builds
// subscription snapshots. Handler tables are built once at construction;
// addresses outside the tables are tolerated, logged and dropped, never
// fatal - clients routinely probe attributes this server does not
// implement.
type Engine struct {
	registry   *registry.Service
	characters CharacterRegistry
	sessions   SessionIndex
	logger     *slog.Logger

	accountReads map[fieldAddr]accountReadFn
	gameReads    map[fieldAddr]gameReadFn
	gameWrites   map[fieldAddr]gameWriteFn

	// per-entity mutual exclusion; operations on distinct entities
	// proceed without contention
	locksMu sync.Mutex
	locks   map[model.EntityID]*sync.Mutex
}

// New creates a presence engine over the given ownership graph
func New(reg *registry.Service, characters CharacterRegistry, sessions SessionIndex, logger *slog.Logger) *Engine {
	e := &Engine{
		registry:   reg,
		characters: characters,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "presence")),
		locks:      make(map[model.EntityID]*sync.Mutex),
	}
	e.accountReads = accountReadTable()
	e.gameReads = gameReadTable()
	e.gameWrites = gameWriteTable()
	return e
}

// lockFor is only called once the entity is known to exist; arbitrary
// ids arriving over the wire never populate the lock map
func (e *Engine) lockFor(id model.EntityID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[id] = mu
	}
	return mu
}

// QueryField returns the current value of one attribute of an entity.
// Unrecognized addresses yield absent and a warning, never an error.
func (e *Engine) QueryField(id model.EntityID, key model.FieldKey) (model.Variant, bool) {
	switch id.HighType() {
	case model.HighIDAccount:
		account, ok := e.registry.AccountByID(model.AccountID(id.Low))
		if !ok {
			e.warnUnknownEntity("query", id)
			return model.Variant{}, false
		}
		read, ok := e.accountReads[addrOf(key)]
		if !ok {
			e.warnUnknownKey("query", key)
			return model.Variant{}, false
		}
		mu := e.lockFor(id)
		mu.Lock()
		defer mu.Unlock()
		return read(e, account)

	case model.HighIDGameAccount:
		gameAccount, ok := e.registry.GameAccountByID(model.GameAccountID(id.Low))
		if !ok {
			e.warnUnknownEntity("query", id)
			return model.Variant{}, false
		}
		read, ok := e.gameReads[addrOf(key)]
		if !ok {
			e.warnUnknownKey("query", key)
			return model.Variant{}, false
		}
		mu := e.lockFor(id)
		mu.Lock()
		defer mu.Unlock()
		return read(e, gameAccount)

	default:
		e.warnUnknownEntity("query", id)
		return model.Variant{}, false
	}
}

// ApplyUpdate applies a single SET or CLEAR to an entity. Unrecognized
// addresses and mismatched value types are logged and dropped.
func (e *Engine) ApplyUpdate(id model.EntityID, op model.FieldOperation) {
	switch id.HighType() {
	case model.HighIDAccount:
		// the account scope declares no writable attributes
		e.warnUnknownKey(op.Kind.String(), op.Key)

	case model.HighIDGameAccount:
		gameAccount, ok := e.registry.GameAccountByID(model.GameAccountID(id.Low))
		if !ok {
			e.warnUnknownEntity(op.Kind.String(), id)
			return
		}
		if op.Kind == model.OpClear {
			// no attribute in either scope supports CLEAR
			e.warnUnknownKey(op.Kind.String(), op.Key)
			return
		}
		write, ok := e.gameWrites[addrOf(op.Key)]
		if !ok {
			e.warnUnknownKey(op.Kind.String(), op.Key)
			return
		}
		mu := e.lockFor(id)
		mu.Lock()
		defer mu.Unlock()
		if err := write(e, gameAccount, op); err != nil {
			e.logger.Warn("dropped malformed set-field",
				slog.String("key", op.Key.String()),
				slog.String("error", err.Error()))
		}

	default:
		e.warnUnknownEntity(op.Kind.String(), id)
	}
}

// SubscriptionSnapshot produces the complete current attribute set of an
// entity as an ordered sequence of SET operations, computed fresh on
// every call so a subscriber always sees current state.
func (e *Engine) SubscriptionSnapshot(id model.EntityID) ([]model.FieldOperation, error) {
	switch id.HighType() {
	case model.HighIDAccount:
		account, ok := e.registry.AccountByID(model.AccountID(id.Low))
		if !ok {
			return nil, model.ErrUnknownEntity
		}
		mu := e.lockFor(id)
		mu.Lock()
		defer mu.Unlock()
		return e.accountSnapshot(account), nil

	case model.HighIDGameAccount:
		gameAccount, ok := e.registry.GameAccountByID(model.GameAccountID(id.Low))
		if !ok {
			return nil, model.ErrUnknownEntity
		}
		mu := e.lockFor(id)
		mu.Lock()
		defer mu.Unlock()
		return e.gameAccountSnapshot(gameAccount), nil

	default:
		return nil, model.ErrUnknownEntity
	}
}

func (e *Engine) warnUnknownKey(kind string, key model.FieldKey) {
	e.logger.Warn("unknown field key",
		slog.String("op", kind),
		slog.String("key", key.String()))
}

func (e *Engine) warnUnknownEntity(kind string, id model.EntityID) {
	e.logger.Warn("unknown entity",
		slog.String("op", kind),
		slog.String("entity", id.String()))
}

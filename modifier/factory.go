package modifier

import (
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/sarchlab/dynmesh/dictionary"
	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/sim"
)

// Env holds what a modifier is created against.
type Env struct {
	Mesh   mesh.Mesh
	Time   sim.TimeIndexer
	Logger *log.Logger
}

// A Factory creates a modifier from its dictionary. The dictionary name is
// the modifier name.
type Factory func(d *dictionary.Dict, env Env) (Modifier, error)

type factoryTable struct {
	lock sync.RWMutex

	factories map[string]Factory
}

func (t *factoryTable) register(typeName string, f Factory) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.factories[typeName]; ok {
		return fmt.Errorf("modifier type %s already registered", typeName)
	}

	t.factories[typeName] = f

	return nil
}

func (t *factoryTable) lookup(typeName string) (Factory, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	f, ok := t.factories[typeName]

	return f, ok
}

func (t *factoryTable) types() []string {
	t.lock.RLock()
	defer t.lock.RUnlock()

	names := make([]string, 0, len(t.factories))
	for n := range t.factories {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

var factories = factoryTable{
	factories: make(map[string]Factory),
}

// Register makes a modifier type available to New.
func Register(typeName string, f Factory) error {
	return factories.register(typeName, f)
}

// MustRegister is Register that panics on failure.
func MustRegister(typeName string, f Factory) {
	err := Register(typeName, f)
	if err != nil {
		log.Panic(err)
	}
}

// RegisteredTypes lists the known modifier types.
func RegisteredTypes() []string {
	return factories.types()
}

// New creates the modifier described by the dictionary, selected by its type
// keyword.
func New(d *dictionary.Dict, env Env) (Modifier, error) {
	typeName, err := d.Word("type")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, d.Name(), err)
	}

	f, ok := factories.lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown type %s, known types %v",
			ErrConfig, d.Name(), typeName, RegisteredTypes())
	}

	if env.Logger == nil {
		env.Logger = log.Default()
	}

	return f(d, env)
}

// NewAll creates one modifier per sub-dictionary.
func NewAll(d *dictionary.Dict, env Env) ([]Modifier, error) {
	var mods []Modifier

	for _, sub := range d.SubDicts() {
		m, err := New(sub, env)
		if err != nil {
			return nil, err
		}

		mods = append(mods, m)
	}

	return mods, nil
}

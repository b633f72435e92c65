package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

var ids struct {
	sync.Mutex
	gen IDGenerator
}

// UseSequentialIDGenerator numbers events and progress bars 1, 2, 3, ... so
// that two runs of the same case get the same IDs. This is the default.
func UseSequentialIDGenerator() {
	useIDGenerator(new(sequentialIDGenerator))
}

// UseParallelIDGenerator gives every ID a globally unique xid.
func UseParallelIDGenerator() {
	useIDGenerator(xidGenerator{})
}

func useIDGenerator(g IDGenerator) {
	ids.Lock()
	defer ids.Unlock()

	if ids.gen != nil {
		log.Panic("the id generator is already in use")
	}

	ids.gen = g
}

// GetIDGenerator returns the ID generator of the process, picking the
// sequential one if none was chosen.
func GetIDGenerator() IDGenerator {
	ids.Lock()
	defer ids.Unlock()

	if ids.gen == nil {
		ids.gen = new(sequentialIDGenerator)
	}

	return ids.gen
}

type sequentialIDGenerator struct {
	last atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}

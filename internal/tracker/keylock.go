package tracker

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLock serializes pipeline work per identity key. Striping bounds memory
// while keeping contention between distinct visitors unlikely.
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLock) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

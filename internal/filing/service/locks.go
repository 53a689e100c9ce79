package service

import (
	"hash/fnv"
	"sync"

	id "taxfile/pkg/domain"
)

// numSessionShards spreads sessions over a fixed set of mutexes so unrelated
// sessions rarely contend while operations on one session are serialised.
const numSessionShards = 128

type sessionLocks struct {
	shards [numSessionShards]sync.Mutex
}

// lock acquires the shard of sessionID and returns its release func.
func (l *sessionLocks) lock(sessionID id.SessionID) func() {
	m := &l.shards[shardFor(sessionID.String())]
	m.Lock()
	return m.Unlock
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numSessionShards
}

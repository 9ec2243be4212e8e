// Package shard deterministically partitions the match list across worker
// processes. Ownership is a pure function of the match uid so that it stays
// stable when the canonical dataset is reordered or appended to.
package shard

import (
	"fmt"
	"hash/fnv"

	"github.com/jonathan/match-auditor/internal/types"
)

// ConfigError reports an invalid shard configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("shard config error: %s", e.Message)
}

// Owner returns the shard index that owns a match uid. The FNV-1a hash keeps
// ownership independent of row position, so every uid maps to exactly one
// shard across runs regardless of dataset ordering.
func Owner(matchUID string, totalShards int) int {
	if totalShards <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(matchUID))
	return int(h.Sum32() % uint32(totalShards))
}

// Plan returns the sublist of records owned by shardID, preserving input
// order. It has no side effects.
func Plan(records []types.MatchRecord, shardID, totalShards int) ([]types.MatchRecord, error) {
	if totalShards < 1 {
		return nil, &ConfigError{Message: fmt.Sprintf("total shards must be >= 1, got %d", totalShards)}
	}
	if shardID < 0 || shardID >= totalShards {
		return nil, &ConfigError{Message: fmt.Sprintf("shard id %d out of range [0, %d)", shardID, totalShards)}
	}

	owned := make([]types.MatchRecord, 0, len(records)/totalShards+1)
	for _, rec := range records {
		if Owner(rec.UID, totalShards) == shardID {
			owned = append(owned, rec)
		}
	}
	return owned, nil
}

package shard

import (
	"fmt"
	"testing"

	"github.com/jonathan/match-auditor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(uids ...string) []types.MatchRecord {
	out := make([]types.MatchRecord, len(uids))
	for i, uid := range uids {
		out[i] = types.MatchRecord{UID: uid}
	}
	return out
}

func TestOwnerIsStable(t *testing.T) {
	for i := 0; i < 50; i++ {
		uid := fmt.Sprintf("match-%d", i)
		first := Owner(uid, 4)
		for j := 0; j < 10; j++ {
			assert.Equal(t, first, Owner(uid, 4), "owner must not change across calls")
		}
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 4)
	}
}

func TestOwnerIndependentOfOrdering(t *testing.T) {
	uids := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"}

	forward, err := Plan(records(uids...), 1, 3)
	require.NoError(t, err)

	reversed := records(uids...)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	backward, err := Plan(reversed, 1, 3)
	require.NoError(t, err)

	forwardSet := make(map[string]bool)
	for _, r := range forward {
		forwardSet[r.UID] = true
	}
	backwardSet := make(map[string]bool)
	for _, r := range backward {
		backwardSet[r.UID] = true
	}
	assert.Equal(t, forwardSet, backwardSet, "ownership must not depend on row order")
}

func TestPlanPartitionIsDisjointAndComplete(t *testing.T) {
	var uids []string
	for i := 0; i < 200; i++ {
		uids = append(uids, fmt.Sprintf("uid-%04d", i))
	}
	recs := records(uids...)

	const totalShards = 4
	seen := make(map[string]int)
	for s := 0; s < totalShards; s++ {
		owned, err := Plan(recs, s, totalShards)
		require.NoError(t, err)
		for _, r := range owned {
			seen[r.UID]++
		}
	}

	assert.Len(t, seen, len(uids), "every uid must be owned")
	for uid, count := range seen {
		assert.Equal(t, 1, count, "uid %s owned by %d shards", uid, count)
	}
}

func TestPlanPreservesInputOrder(t *testing.T) {
	recs := records("a", "b", "c", "d", "e", "f", "g", "h")
	owned, err := Plan(recs, 0, 2)
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, r := range recs {
		pos[r.UID] = i
	}
	for i := 1; i < len(owned); i++ {
		assert.Less(t, pos[owned[i-1].UID], pos[owned[i].UID], "plan must preserve scan order")
	}
}

func TestPlanSingleShardOwnsEverything(t *testing.T) {
	recs := records("a", "b", "c")
	owned, err := Plan(recs, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, recs, owned)
}

func TestPlanConfigErrors(t *testing.T) {
	tests := []struct {
		name        string
		shardID     int
		totalShards int
	}{
		{"Shard equal to total", 4, 4},
		{"Shard beyond total", 9, 4},
		{"Negative shard", -1, 4},
		{"Zero total shards", 0, 0},
		{"Negative total shards", 0, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(records("a"), tt.shardID, tt.totalShards)
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

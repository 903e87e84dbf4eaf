package publisher

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/ingestion"
)

func TestAssignShardWithinRange(t *testing.T) {
	for _, numShards := range []int{1, 2, 3, 8, 16} {
		for i := 0; i < 100; i++ {
			req := &ingestion.EvalRequest{
				Candidate:  fmt.Sprintf("candidate text %d", i),
				References: []string{fmt.Sprintf("reference text %d", i)},
			}
			shard := assignShard(hashRequest(req), numShards)
			if shard < 0 || shard >= numShards {
				t.Fatalf("numShards=%d: shard %d out of range for request %d", numShards, shard, i)
			}
		}
	}
}

func TestAssignShardDeterministic(t *testing.T) {
	req := &ingestion.EvalRequest{
		Candidate:  "the cat sat on the mat",
		References: []string{"the cat sat on the rug"},
	}
	hash := hashRequest(req)

	first := assignShard(hash, 8)
	for i := 0; i < 10; i++ {
		if got := assignShard(hash, 8); got != first {
			t.Fatalf("shard assignment not deterministic: %d vs %d", got, first)
		}
	}
}

func TestNewUsesConfiguredShardCount(t *testing.T) {
	if p := New(nil, nil, 3); p.numShards != 3 {
		t.Errorf("expected 3 shards, got %d", p.numShards)
	}
	// Missing or invalid counts fall back to the default.
	if p := New(nil, nil, 0); p.numShards != defaultShards {
		t.Errorf("expected %d shards for zero count, got %d", defaultShards, p.numShards)
	}
	if p := New(nil, nil, -2); p.numShards != defaultShards {
		t.Errorf("expected %d shards for negative count, got %d", defaultShards, p.numShards)
	}
}

func TestEncodeDecodeReferences(t *testing.T) {
	refs := []string{"first reference", "second reference", "third, with punctuation"}
	if got := DecodeReferences(encodeReferences(refs)); len(got) != len(refs) {
		t.Fatalf("expected %d references, got %d", len(refs), len(got))
	}
	if got := DecodeReferences(""); got != nil {
		t.Errorf("expected nil for empty encoding, got %v", got)
	}
}

package merkle

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"
)

// transferLeaf builds a leaf hash the way a real ingestion cycle would: run
// a synthetic transfer row through DetailsHash, then decode the resulting
// hex digest into the 32-byte form BuildTree requires.
func transferLeaf(t *testing.T, seed int) []byte {
	t.Helper()
	f := TransferFields{
		Hash:            fmt.Sprintf("0x%064d", seed),
		BlockNumber:     fmt.Sprintf("%d", 18_000_000+seed),
		TimeStamp:       fmt.Sprintf("%d", 1_700_000_000+seed),
		From:            fmt.Sprintf("0xFROM%036d", seed),
		To:              fmt.Sprintf("0xTO%038d", seed),
		ContractAddress: "0xKWONTOKEN00000000000000000000000000000",
		Value:           fmt.Sprintf("%d", (seed+1)*1_000_000),
		TokenDecimal:    "6",
	}
	leaf, err := LeafFromHex(DetailsHash(f))
	if err != nil {
		t.Fatalf("build leaf %d: %v", seed, err)
	}
	return leaf
}

func transferLeaves(t *testing.T, n int) [][]byte {
	t.Helper()
	leaves := make([][]byte, n)
	for i := 0; i < n; i++ {
		leaves[i] = transferLeaf(t, i)
	}
	return leaves
}

func TestBuildTree_SingleEvent(t *testing.T) {
	leaf := transferLeaf(t, 0)
	tree, err := BuildTree([][]byte{leaf})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	if !bytes.Equal(tree.Root(), leaf) {
		t.Errorf("single-event root mismatch: got %x, want %x", tree.Root(), leaf)
	}
	if tree.LeafCount() != 1 {
		t.Errorf("leaf count = %d, want 1", tree.LeafCount())
	}
}

func TestBuildTree_PairOfEvents(t *testing.T) {
	leaves := transferLeaves(t, 2)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	want := hashPair(leaves[0], leaves[1])
	if !bytes.Equal(tree.Root(), want) {
		t.Errorf("pair root mismatch: got %x, want %x", tree.Root(), want)
	}
}

func TestBuildTree_EventBatchSizes(t *testing.T) {
	for _, n := range []int{3, 4, 5, 7, 8, 16} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			leaves := transferLeaves(t, n)
			tree, err := BuildTree(leaves)
			if err != nil {
				t.Fatalf("build tree of %d events: %v", n, err)
			}
			if tree.LeafCount() != n {
				t.Errorf("leaf count = %d, want %d", tree.LeafCount(), n)
			}
			if root := tree.Root(); len(root) != 32 {
				t.Errorf("root length = %d, want 32", len(root))
			}
		})
	}
}

func TestGenerateProof_EveryLeafInBatchVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 9, 25, 64} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			leaves := transferLeaves(t, n)
			tree, err := BuildTree(leaves)
			if err != nil {
				t.Fatalf("build tree: %v", err)
			}

			for i := 0; i < n; i++ {
				proof, err := tree.GenerateProof(i)
				if err != nil {
					t.Fatalf("proof for event %d: %v", i, err)
				}
				if proof.LeafIndex != i {
					t.Errorf("event %d: leaf index = %d", i, proof.LeafIndex)
				}
				valid, err := VerifyProof(leaves[i], proof, tree.Root())
				if err != nil {
					t.Fatalf("event %d: verify: %v", i, err)
				}
				if !valid {
					t.Errorf("event %d: proof did not verify against batch root", i)
				}
			}
		})
	}
}

func TestGenerateProof_SiblingSides(t *testing.T) {
	leaves := transferLeaves(t, 2)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	proof0, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("proof 0: %v", err)
	}
	if len(proof0.Path) != 1 || proof0.Path[0].Position != Right {
		t.Fatalf("event 0 expected a single right sibling, got %+v", proof0.Path)
	}

	proof1, err := tree.GenerateProof(1)
	if err != nil {
		t.Fatalf("proof 1: %v", err)
	}
	if len(proof1.Path) != 1 || proof1.Path[0].Position != Left {
		t.Fatalf("event 1 expected a single left sibling, got %+v", proof1.Path)
	}
}

func TestGenerateProofByHash(t *testing.T) {
	leaves := transferLeaves(t, 5)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	proof, err := tree.GenerateProofByHash(leaves[3])
	if err != nil {
		t.Fatalf("proof by hash: %v", err)
	}
	if proof.LeafIndex != 3 {
		t.Fatalf("leaf index = %d, want 3", proof.LeafIndex)
	}

	valid, err := VerifyProof(leaves[3], proof, tree.Root())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !valid {
		t.Fatal("proof did not verify")
	}

	if _, err := tree.GenerateProofByHash(transferLeaf(t, 999)); err != ErrLeafNotFound {
		t.Fatalf("expected ErrLeafNotFound for an event not in the batch, got %v", err)
	}
}

func TestVerifyProof_RejectsTamperedInputs(t *testing.T) {
	leaves := transferLeaves(t, 2)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	proof, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	otherEvent := transferLeaf(t, 77)
	if valid, err := VerifyProof(otherEvent, proof, tree.Root()); err != nil || valid {
		t.Fatalf("proof for event 0 verified a different event: valid=%v err=%v", valid, err)
	}

	forgedRoot := transferLeaf(t, 88)
	if valid, err := VerifyProof(leaves[0], proof, forgedRoot); err != nil || valid {
		t.Fatalf("proof verified against a forged root: valid=%v err=%v", valid, err)
	}
}

func TestProofRoundTripsThroughJSON(t *testing.T) {
	leaves := transferLeaves(t, 4)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	proof, err := tree.GenerateProof(2)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	data, err := proof.ToJSON()
	if err != nil {
		t.Fatalf("marshal proof: %v", err)
	}
	restored, err := ProofFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal proof: %v", err)
	}

	leafHash, err := hex.DecodeString(restored.LeafHash)
	if err != nil {
		t.Fatalf("decode restored leaf hash: %v", err)
	}
	rootHash, err := hex.DecodeString(restored.MerkleRoot)
	if err != nil {
		t.Fatalf("decode restored root hash: %v", err)
	}

	valid, err := VerifyProof(leafHash, restored, rootHash)
	if err != nil {
		t.Fatalf("verify restored proof: %v", err)
	}
	if !valid {
		t.Fatal("restored proof did not verify")
	}
}

func TestBuildTree_RejectsEmptyBatch(t *testing.T) {
	if _, err := BuildTree([][]byte{}); err != ErrEmptyTree {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
}

func TestBuildTree_RejectsShortLeaf(t *testing.T) {
	if _, err := BuildTree([][]byte{[]byte("not a 32-byte hash")}); err == nil {
		t.Fatal("expected error for a leaf that isn't 32 bytes")
	}
}

func TestHashData_IsDeterministic(t *testing.T) {
	data := []byte("kwon compliance event")
	if !bytes.Equal(HashData(data), HashData(data)) {
		t.Fatal("HashData is not deterministic")
	}
}

func TestCombineHashes_OrderMatters(t *testing.T) {
	a := transferLeaf(t, 1)
	b := transferLeaf(t, 2)

	if bytes.Equal(CombineHashes(a, b), CombineHashes(b, a)) {
		t.Fatal("combine order should change the result")
	}
}

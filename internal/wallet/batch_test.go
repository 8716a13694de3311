package wallet

import (
	"context"
	"errors"
	"testing"
)

func TestDeriveRange_MatchesSequential(t *testing.T) {
	master := testMaster(t, vector1Seed)

	for _, workers := range []int{0, 1, 3, 16} {
		results, err := DeriveRange(context.Background(), master, 10, 25, false, workers)
		if err != nil {
			t.Fatalf("workers=%d: DeriveRange() error: %v", workers, err)
		}
		if len(results) != 25 {
			t.Fatalf("workers=%d: %d results, want 25", workers, len(results))
		}
		for i, r := range results {
			if r.Index != uint32(10+i) {
				t.Fatalf("result %d has index %d", i, r.Index)
			}
			if r.Err != nil {
				t.Fatalf("index %d: %v", r.Index, r.Err)
			}
			want, err := master.Child(r.Index)
			if err != nil {
				t.Fatal(err)
			}
			if r.Key.String() != want.String() {
				t.Errorf("workers=%d index %d: key mismatch", workers, r.Index)
			}
		}
	}
}

func TestDeriveRange_Hardened(t *testing.T) {
	master := testMaster(t, vector1Seed)
	results, err := DeriveRange(context.Background(), master, 0, 3, true, 2)
	if err != nil {
		t.Fatalf("DeriveRange() error: %v", err)
	}
	for _, r := range results {
		want, err := master.DeriveChild(r.Index, true)
		if err != nil {
			t.Fatal(err)
		}
		if r.Key.String() != want.String() {
			t.Errorf("index %d: hardened key mismatch", r.Index)
		}
		if r.Key.ChildIndex() != r.Index+HardenedKeyStart {
			t.Errorf("ChildIndex() = %d, want %d", r.Key.ChildIndex(), r.Index+HardenedKeyStart)
		}
	}
}

func TestDeriveRange_PublicParent(t *testing.T) {
	master := testMaster(t, vector1Seed)
	pub := master.Neuter()

	results, err := DeriveRange(context.Background(), pub, 0, 5, false, 2)
	if err != nil {
		t.Fatalf("DeriveRange() error: %v", err)
	}
	for _, r := range results {
		want, err := master.Child(r.Index)
		if err != nil {
			t.Fatal(err)
		}
		if r.Key.String() != want.Neuter().String() {
			t.Errorf("index %d: public derivation mismatch", r.Index)
		}
	}

	if _, err := DeriveRange(context.Background(), pub, 0, 5, true, 2); !errors.Is(err, ErrHardenedFromPublic) {
		t.Errorf("hardened range from public key error = %v, want ErrHardenedFromPublic", err)
	}
}

func TestDeriveRange_Bounds(t *testing.T) {
	master := testMaster(t, vector1Seed)

	tests := []struct {
		name  string
		start uint32
		count uint32
		ok    bool
	}{
		{"empty", 0, 0, true},
		{"last normal", HardenedKeyStart - 1, 1, true},
		{"crosses boundary", HardenedKeyStart - 1, 2, false},
		{"raw hardened", HardenedKeyStart, 2, true},
		{"last hardened", ^uint32(0), 1, true},
		{"wraps", ^uint32(0), 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveRange(context.Background(), master, tt.start, tt.count, false, 1)
			if tt.ok && err != nil {
				t.Errorf("DeriveRange() error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPath) {
				t.Errorf("DeriveRange() error = %v, want ErrInvalidPath", err)
			}
		})
	}
}

func TestDeriveRange_Canceled(t *testing.T) {
	master := testMaster(t, vector1Seed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := DeriveRange(ctx, master, 0, 100, false, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("DeriveRange() error = %v, want context.Canceled", err)
	}
}

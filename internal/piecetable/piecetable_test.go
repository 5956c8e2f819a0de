package piecetable

import (
	"errors"
	"testing"

	"github.com/schollz/tapecore/internal/errs"
	"github.com/schollz/tapecore/internal/segment"
)

func seqSegment(n int) *segment.Segment {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(i)
	}
	return segment.New(buf, 1)
}

func TestFromSegmentRoundTrip(t *testing.T) {
	seg := seqSegment(10)
	pt := FromSegment(seg)
	if pt.Length() != 10 {
		t.Fatalf("expected length 10, got %d", pt.Length())
	}
	arr := pt.ToArray()
	for i := 0; i < 10; i++ {
		if arr[i] != float32(i) {
			t.Errorf("arr[%d] = %v, want %v", i, arr[i], i)
		}
	}
}

func TestSliceRoundTrip(t *testing.T) {
	// Property 1: t.slice(lo,hi).toArray() == t.toArray()[lo:hi]
	pt := FromSegment(seqSegment(50))
	full := pt.ToArray()
	for _, rng := range [][2]int{{0, 50}, {0, 0}, {10, 40}, {49, 50}, {5, 5}} {
		lo, hi := rng[0], rng[1]
		sub, err := pt.Slice(lo, hi)
		if err != nil {
			t.Fatalf("slice(%d,%d): %v", lo, hi, err)
		}
		got := sub.ToArray()
		want := full[lo:hi]
		if len(got) != len(want) {
			t.Fatalf("slice(%d,%d): length %d, want %d", lo, hi, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("slice(%d,%d)[%d] = %v, want %v", lo, hi, i, got[i], want[i])
			}
		}
	}
}

func TestInsertThenRemoveInverts(t *testing.T) {
	// Property 2: t.insert(x, i).remove(i, i+|x|) == t
	base := FromSegment(seqSegment(20))
	insertion := FromSegment(seqSegment(7))
	for _, i := range []int{0, 5, 20} {
		combined, err := base.Insert(insertion, i)
		if err != nil {
			t.Fatalf("insert at %d: %v", i, err)
		}
		restored, err := combined.Remove(i, i+insertion.Length())
		if err != nil {
			t.Fatalf("remove at %d: %v", i, err)
		}
		gotArr, wantArr := restored.ToArray(), base.ToArray()
		if len(gotArr) != len(wantArr) {
			t.Fatalf("insert/remove at %d: length %d, want %d", i, len(gotArr), len(wantArr))
		}
		for j := range wantArr {
			if gotArr[j] != wantArr[j] {
				t.Errorf("insert/remove at %d, sample %d = %v, want %v", i, j, gotArr[j], wantArr[j])
			}
		}
	}
}

func TestRemoveEntireTableIsValidEmpty(t *testing.T) {
	pt := FromSegment(seqSegment(10))
	empty, err := pt.Remove(0, 10)
	if err != nil {
		t.Fatalf("remove(0,N): %v", err)
	}
	if empty.Length() != 0 {
		t.Errorf("expected length 0, got %d", empty.Length())
	}
}

func TestNoOpInsertionPoint(t *testing.T) {
	pt := FromSegment(seqSegment(10))
	same, err := pt.Remove(3, 3)
	if err != nil {
		t.Fatalf("remove(lo,lo): %v", err)
	}
	if same.Length() != pt.Length() {
		t.Errorf("expected equivalent table, got length %d want %d", same.Length(), pt.Length())
	}
}

func TestOutOfRangeFailsWithoutMutatingInput(t *testing.T) {
	pt := FromSegment(seqSegment(10))
	before := pt.ToArray()
	if _, err := pt.Remove(-1, 5); !errors.Is(err, errs.InvalidRange) {
		t.Errorf("expected InvalidRange, got %v", err)
	}
	if _, err := pt.Remove(5, 11); !errors.Is(err, errs.InvalidRange) {
		t.Errorf("expected InvalidRange, got %v", err)
	}
	if _, err := pt.Insert(pt, 11); !errors.Is(err, errs.InvalidRange) {
		t.Errorf("expected InvalidRange, got %v", err)
	}
	after := pt.ToArray()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("input table was mutated by a failed operation")
		}
	}
}

func TestReplaceComposesRemoveAndInsert(t *testing.T) {
	pt := FromSegment(seqSegment(30))
	replacement := FromSegment(seqSegment(5))
	replaced, err := pt.Replace(10, 20, replacement)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.Length() != 25 {
		t.Fatalf("expected length 25, got %d", replaced.Length())
	}
	arr := replaced.ToArray()
	for i := 0; i < 5; i++ {
		if arr[10+i] != float32(i) {
			t.Errorf("replaced region[%d] = %v, want %v", i, arr[10+i], i)
		}
	}
}

func TestIndexAmortizedSequentialAccess(t *testing.T) {
	pt := FromSegment(seqSegment(5))
	inserted, _ := pt.Insert(FromSegment(seqSegment(5)), 2)
	for i := 0; i < inserted.Length(); i++ {
		v, err := inserted.Index(i)
		if err != nil {
			t.Fatalf("index(%d): %v", i, err)
		}
		arr := inserted.ToArray()
		if v != arr[i] {
			t.Errorf("index(%d) = %v, want %v", i, v, arr[i])
		}
	}
}

func TestInsertPreservesSplicedPieceStructure(t *testing.T) {
	// Inserting a multi-piece table should preserve its internal piece
	// boundaries rather than flattening it into one piece.
	a := FromSegment(seqSegment(5))
	b := FromSegment(seqSegment(5))
	multi, _ := a.Append(b) // 2 pieces
	target := FromSegment(seqSegment(10))
	combined, err := target.Insert(multi, 5)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if combined.NumPieces() < 3 {
		t.Errorf("expected spliced piece structure to be preserved, got %d pieces", combined.NumPieces())
	}
}

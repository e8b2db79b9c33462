package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRevRestoresOnPop checks the core reversibility property: after any
// sequence of writes, popping to a checkpoint restores every cell to the
// value it had when that checkpoint was pushed.
func TestRevRestoresOnPop(t *testing.T) {
	tr := NewTrail()
	a := NewRev(tr, int64(1))
	b := NewRev(tr, "root")

	tr.PushCheckpoint()
	a.Set(2)
	b.Set("level1")
	tr.PushCheckpoint()
	a.Set(3)
	a.Set(4)
	b.Set("level2")

	tr.PopTo(1)
	require.Equal(t, int64(2), a.Get())
	require.Equal(t, "level1", b.Get())

	tr.PopTo(0)
	require.Equal(t, int64(1), a.Get())
	require.Equal(t, "root", b.Get())
}

// TestRevCoalescesWritesPerNode checks that repeated writes at one depth
// record a single prior value.
func TestRevCoalescesWritesPerNode(t *testing.T) {
	tr := NewTrail()
	r := NewRev(tr, 10)

	tr.PushCheckpoint()
	r.Set(11)
	entriesAfterFirst := len(tr.entries)
	r.Set(12)
	r.Set(13)
	require.Equal(t, entriesAfterFirst, len(tr.entries), "later writes at the same depth must not add entries")

	tr.PopOne()
	require.Equal(t, 10, r.Get())
}

// TestRevEqualWriteIsFree checks that writing the current value consumes
// no trail space.
func TestRevEqualWriteIsFree(t *testing.T) {
	tr := NewTrail()
	r := NewRev(tr, 5)
	tr.PushCheckpoint()
	r.Set(5)
	require.Zero(t, len(tr.entries))
}

func TestRevIntAndSwitch(t *testing.T) {
	tr := NewTrail()
	n := NewRevInt(tr, 3)
	sw := NewRevSwitch(tr)

	tr.PushCheckpoint()
	require.Equal(t, 5, n.Incr(2))
	require.Equal(t, 4, n.Decr(1))
	sw.Flip()
	require.True(t, sw.On())

	tr.PopOne()
	require.Equal(t, 3, n.Get())
	require.False(t, sw.On())
}

func TestRevFIFOShrinksOnBacktrack(t *testing.T) {
	tr := NewTrail()
	f := NewRevFIFO[int](tr)
	f.Push(1)

	tr.PushCheckpoint()
	f.Push(2)
	f.Push(3)
	require.Equal(t, 3, f.Len())
	require.Equal(t, 2, f.At(1))

	tr.PopOne()
	require.Equal(t, 1, f.Len())
	require.Equal(t, 1, f.At(0))

	// Reuse of the backing array after backtrack.
	f.Push(9)
	require.Equal(t, 9, f.At(1))
}

func TestRevBitset(t *testing.T) {
	tr := NewTrail()
	b := NewRevBitsetAllSet(tr, 130) // spans three words

	require.Equal(t, 130, b.Cardinality())
	require.True(t, b.Has(0))
	require.True(t, b.Has(129))

	tr.PushCheckpoint()
	for i := 0; i < 129; i++ {
		b.Clear(i)
	}
	require.Equal(t, 1, b.Cardinality())
	require.True(t, b.CardinalityAtMost(1))
	sole, ok := b.SoleMember()
	require.True(t, ok)
	require.Equal(t, 129, sole)

	// Clearing twice is idempotent.
	b.Clear(5)
	require.Equal(t, 1, b.Cardinality())

	tr.PopOne()
	require.Equal(t, 130, b.Cardinality())
	_, ok = b.SoleMember()
	require.False(t, ok)
}

func TestSatMath(t *testing.T) {
	tests := []struct {
		name string
		got  int64
		want int64
	}{
		{"add plain", CapAdd(2, 3), 5},
		{"add saturates high", CapAdd(MaxInt, 1), MaxInt},
		{"add saturates low", CapAdd(MinInt, -1), MinInt},
		{"sub plain", CapSub(2, 3), -1},
		{"sub saturates high", CapSub(MaxInt, -1), MaxInt},
		{"sub saturates low", CapSub(MinInt, 1), MinInt},
		{"sub of min from zero", CapSub(0, MinInt), MaxInt},
		{"mul plain", CapMul(-4, 5), -20},
		{"mul zero", CapMul(0, MaxInt), 0},
		{"mul saturates high", CapMul(MaxInt, 2), MaxInt},
		{"mul saturates low", CapMul(MaxInt, -2), MinInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %d, want %d", tt.got, tt.want)
			}
		})
	}
}

package streamly

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func pull[T any](t *testing.T, p Producer[T], n int) []T {
	t.Helper()
	ctx := context.Background()
	var out []T
	for i := 0; i < n; i++ {
		v, err := p.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return out
		}
		if err != nil {
			t.Fatalf("pull %d: %v", i, err)
		}
		out = append(out, v)
	}
	return out
}

func TestFromSlice(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	if got := pull(t, p, 10); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
	if _, err := p.Next(context.Background()); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("exhausted producer returned %v", err)
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "a"
	ch <- "b"
	close(ch)

	p := FromChannel(ch)
	if h, ok := p.(BlockingHinter); !ok || !h.MayBlock() {
		t.Fatal("channel producer should hint that it may block")
	}
	if got := pull(t, p, 10); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFromChannel_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := FromChannel(make(chan int))
	if _, err := p.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestEmptyAndRepeat(t *testing.T) {
	if got := pull(t, Empty[int](), 5); len(got) != 0 {
		t.Fatalf("Empty yielded %v", got)
	}
	if got := pull(t, Repeat("x", 3), 10); !reflect.DeepEqual(got, []string{"x", "x", "x"}) {
		t.Fatalf("Repeat yielded %v", got)
	}
	if got := pull(t, Repeat(1, 0), 5); len(got) != 0 {
		t.Fatalf("Repeat(., 0) yielded %v", got)
	}
}

func TestWithBlockingHint(t *testing.T) {
	p := WithBlockingHint(FromSlice([]int{1}))
	h, ok := p.(BlockingHinter)
	if !ok || !h.MayBlock() {
		t.Fatal("wrapped producer lost the blocking hint")
	}
	if got := pull(t, p, 5); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("got %v", got)
	}
}

func TestMapFilterTake(t *testing.T) {
	base := func() Producer[int] { return FromSlice([]int{1, 2, 3, 4, 5, 6}) }

	doubled := Map(base(), func(v int) int { return v * 2 })
	if got := pull(t, doubled, 10); !reflect.DeepEqual(got, []int{2, 4, 6, 8, 10, 12}) {
		t.Fatalf("Map: %v", got)
	}

	even := Filter(base(), func(v int) bool { return v%2 == 0 })
	if got := pull(t, even, 10); !reflect.DeepEqual(got, []int{2, 4, 6}) {
		t.Fatalf("Filter: %v", got)
	}

	first := Take(base(), 2)
	if got := pull(t, first, 10); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("Take: %v", got)
	}
}

func TestTransforms_PropagateFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := ProducerFunc[int](func(context.Context) (int, error) { return 0, boom })

	_, err := Map(failing, func(v int) int { return v }).Next(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Map swallowed failure: %v", err)
	}
	_, err = Filter(failing, func(int) bool { return true }).Next(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Filter swallowed failure: %v", err)
	}
	_, err = Take(failing, 3).Next(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Take swallowed failure: %v", err)
	}
}

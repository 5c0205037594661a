package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/YaganovValera/reddit-collector/internal/reddit"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

type fakeFetcher struct {
	resp *reddit.Response
	err  error
}

func (f fakeFetcher) Fetch(context.Context) (*reddit.Response, error) { return f.resp, f.err }

type sent struct {
	topic string
	key   []byte
	value string
}

type fakeProducer struct {
	mu     sync.Mutex
	msgs   []sent
	failAt map[int]bool
	calls  int
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if p.failAt[i] {
		return errors.New("broker unavailable")
	}
	p.msgs = append(p.msgs, sent{topic: topic, key: key, value: string(value)})
	return nil
}

func (p *fakeProducer) Ping(context.Context) error { return nil }
func (p *fakeProducer) Close() error               { return nil }

func listing(posts ...reddit.Post) *reddit.Response {
	l := &reddit.Listing{}
	for _, p := range posts {
		l.Children = append(l.Children, reddit.Child{Data: p})
	}
	return &reddit.Response{Data: l}
}

func TestFormatPayload(t *testing.T) {
	cases := []struct {
		post reddit.Post
		want string
	}{
		{reddit.Post{Title: "Hello", URL: "http://x/y"}, "Hello - http://x/y"},
		{reddit.Post{Title: "", URL: "http://x"}, " - http://x"},
		{reddit.Post{Title: "a - b", URL: ""}, "a - b - "},
	}
	for _, c := range cases {
		if got := FormatPayload(c.post); got != c.want {
			t.Errorf("FormatPayload(%+v) = %q; want %q", c.post, got, c.want)
		}
	}
}

func TestRun_PublishesInOrder(t *testing.T) {
	prod := &fakeProducer{}
	resp := listing(
		reddit.Post{Title: "A", URL: "u1"},
		reddit.Post{Title: "B", URL: "u2"},
		reddit.Post{Title: "C", URL: "u3"},
	)
	c := NewCycle(fakeFetcher{resp: resp}, prod, "reddit-posts", logger.NewNop())

	sum := c.Run(context.Background(), TriggerManual)
	if sum.Outcome != OutcomeCompleted || sum.Fetched != 3 || sum.Published != 3 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	want := []string{"A - u1", "B - u2", "C - u3"}
	for i, m := range prod.msgs {
		if m.topic != "reddit-posts" {
			t.Errorf("msg %d topic = %q", i, m.topic)
		}
		if m.key != nil {
			t.Errorf("msg %d key = %q; want nil", i, m.key)
		}
		if m.value != want[i] {
			t.Errorf("msg %d value = %q; want %q", i, m.value, want[i])
		}
	}
}

func TestRun_FetchFailed(t *testing.T) {
	prod := &fakeProducer{}
	c := NewCycle(fakeFetcher{err: errors.New("timeout")}, prod, "reddit-posts", logger.NewNop())

	sum := c.Run(context.Background(), TriggerScheduled)
	if sum.Outcome != OutcomeFetchFailed {
		t.Errorf("outcome = %q; want %q", sum.Outcome, OutcomeFetchFailed)
	}
	if prod.calls != 0 {
		t.Errorf("publish calls = %d; want 0", prod.calls)
	}
}

func TestRun_NoData(t *testing.T) {
	for _, resp := range []*reddit.Response{nil, {}} {
		prod := &fakeProducer{}
		c := NewCycle(fakeFetcher{resp: resp}, prod, "reddit-posts", logger.NewNop())
		sum := c.Run(context.Background(), TriggerScheduled)
		if sum.Outcome != OutcomeNoData || prod.calls != 0 {
			t.Errorf("resp=%v: summary = %+v, calls = %d", resp, sum, prod.calls)
		}
	}
}

func TestRun_EmptyListing(t *testing.T) {
	prod := &fakeProducer{}
	c := NewCycle(fakeFetcher{resp: listing()}, prod, "reddit-posts", logger.NewNop())
	sum := c.Run(context.Background(), TriggerManual)
	if sum.Outcome != OutcomeCompleted || sum.Fetched != 0 || prod.calls != 0 {
		t.Errorf("summary = %+v, calls = %d", sum, prod.calls)
	}
}

func TestRun_PublishFailureContinues(t *testing.T) {
	prod := &fakeProducer{failAt: map[int]bool{1: true}}
	resp := listing(
		reddit.Post{Title: "A", URL: "u1"},
		reddit.Post{Title: "B", URL: "u2"},
		reddit.Post{Title: "C", URL: "u3"},
	)
	c := NewCycle(fakeFetcher{resp: resp}, prod, "reddit-posts", logger.NewNop())

	sum := c.Run(context.Background(), TriggerManual)
	if sum.Outcome != OutcomeCompleted || sum.Published != 2 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if prod.calls != 3 {
		t.Errorf("publish calls = %d; want 3", prod.calls)
	}
	if len(prod.msgs) != 2 || prod.msgs[0].value != "A - u1" || prod.msgs[1].value != "C - u3" {
		t.Errorf("msgs = %+v", prod.msgs)
	}
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	prod := &fakeProducer{}
	var posts []reddit.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, reddit.Post{Title: fmt.Sprintf("t%d", i), URL: "u"})
	}
	c := NewCycle(fakeFetcher{resp: listing(posts...)}, prod, "reddit-posts", logger.NewNop())

	const runs = 8
	sums := make([]Summary, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sums[i] = c.Run(context.Background(), TriggerManual)
		}(i)
	}
	wg.Wait()

	for i, s := range sums {
		if s.Published != 5 {
			t.Errorf("run %d published = %d; want 5", i, s.Published)
		}
	}
	if len(prod.msgs) != runs*5 {
		t.Errorf("total msgs = %d; want %d", len(prod.msgs), runs*5)
	}
}

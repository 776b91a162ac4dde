package smtgrid

import (
	"context"
	"testing"
)

func newTestConn(s *Server, id string) *conn {
	c := s.newConn(&mockConn{})
	c.ID = id
	return c
}

func TestSubscribeIdempotent(t *testing.T) {
	s := NewServer(context.Background())
	c := newTestConn(s, "a")

	s.memorySubscribed.Subscribe("test", c)
	s.memorySubscribed.Subscribe("test", c)

	if got := len(s.memorySubscribed.Subscribers("test")); got != 1 {
		t.Errorf("Subscribers = %d, want 1", got)
	}
	if c.topics.Len() != 1 {
		t.Errorf("topics.Len = %d, want 1", c.topics.Len())
	}
}

// For every topic T and session S: T in S.topics iff S in Subscribers(T).
func TestIndexSymmetry(t *testing.T) {
	s := NewServer(context.Background())
	a := newTestConn(s, "a")
	b := newTestConn(s, "b")

	s.memorySubscribed.Subscribe("t1", a)
	s.memorySubscribed.Subscribe("t1", b)
	s.memorySubscribed.Subscribe("t2", b)

	check := func() {
		t.Helper()
		for _, c := range []*conn{a, b} {
			for _, topicName := range c.topics.Topics() {
				found := false
				for _, sub := range s.memorySubscribed.Subscribers(topicName) {
					if sub == c {
						found = true
					}
				}
				if !found {
					t.Errorf("edge %s->%s missing from index", topicName, c.ID)
				}
			}
		}
		for _, topicName := range []string{"t1", "t2"} {
			for _, sub := range s.memorySubscribed.Subscribers(topicName) {
				if !sub.topics.Has(topicName) {
					t.Errorf("edge %s->%s missing from session set", topicName, sub.ID)
				}
			}
		}
	}
	check()

	s.memorySubscribed.Unsubscribe("t1", b)
	check()
	if b.topics.Has("t1") {
		t.Error("t1 should be gone from b's set")
	}
}

func TestUnsubscribePrunesEmptyTopic(t *testing.T) {
	s := NewServer(context.Background())
	c := newTestConn(s, "a")

	s.memorySubscribed.Subscribe("test", c)
	if s.memorySubscribed.Topics() != 1 {
		t.Fatalf("Topics = %d, want 1", s.memorySubscribed.Topics())
	}
	s.memorySubscribed.Unsubscribe("test", c)
	if s.memorySubscribed.Topics() != 0 {
		t.Errorf("Topics = %d, want 0 after pruning", s.memorySubscribed.Topics())
	}
}

func TestDropConnRemovesEveryEdge(t *testing.T) {
	s := NewServer(context.Background())
	a := newTestConn(s, "a")
	b := newTestConn(s, "b")

	s.memorySubscribed.Subscribe("t1", a)
	s.memorySubscribed.Subscribe("t2", a)
	s.memorySubscribed.Subscribe("t1", b)

	s.memorySubscribed.DropConn(a)

	if a.topics.Len() != 0 {
		t.Errorf("a.topics.Len = %d, want 0", a.topics.Len())
	}
	if got := s.memorySubscribed.Subscribers("t1"); len(got) != 1 || got[0] != b {
		t.Errorf("Subscribers(t1) = %d conns, want just b", len(got))
	}
	if len(s.memorySubscribed.Subscribers("t2")) != 0 {
		t.Error("Subscribers(t2) should be empty")
	}
	if s.memorySubscribed.Topics() != 1 {
		t.Errorf("Topics = %d, want 1", s.memorySubscribed.Topics())
	}
}

// Two Subscribers calls on the same state yield the same sequence.
func TestSubscribersDeterministic(t *testing.T) {
	s := NewServer(context.Background())
	for _, id := range []string{"c", "a", "b", "d"} {
		s.memorySubscribed.Subscribe("test", newTestConn(s, id))
	}
	first := s.memorySubscribed.Subscribers("test")
	second := s.memorySubscribed.Subscribers("test")
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("lengths = %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs at %d", i)
		}
		if i > 0 && first[i-1].ID > first[i].ID {
			t.Errorf("not sorted at %d: %s > %s", i, first[i-1].ID, first[i].ID)
		}
	}
}

func TestSubscribersUnknownTopic(t *testing.T) {
	s := NewServer(context.Background())
	if got := s.memorySubscribed.Subscribers("nobody"); len(got) != 0 {
		t.Errorf("Subscribers = %d, want 0", len(got))
	}
}

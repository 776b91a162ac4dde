package smtgrid

import (
	"log"
	"sort"
	"sync"

	"github.com/gtofzz/smtgrid/packet"
	"golang.org/x/sync/errgroup"
)

// MemorySubscribed is the broker's subscription index: a mapping from
// exact topic string to the set of sessions interested in it. It also
// maintains the mirror entry in each session's own topic.Set, so the two
// views never disagree: for every topic T and session S,
// T in S.topics iff S in Subscribers(T).
//
// All state is in memory and lost on restart.
type MemorySubscribed struct {
	mu   sync.RWMutex
	maps map[string]map[*conn]struct{}
	s    *Server
}

func NewMemorySubscribed(s *Server) *MemorySubscribed {
	return &MemorySubscribed{
		maps: make(map[string]map[*conn]struct{}),
		s:    s,
	}
}

// Subscribe adds the topic/session edge. Re-subscribing is a no-op at
// the index level.
func (m *MemorySubscribed) Subscribe(topicName string, c *conn) {
	if err := c.topics.Add(topicName); err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.maps[topicName]
	if !ok {
		set = make(map[*conn]struct{})
		m.maps[topicName] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe removes the topic/session edge and prunes the topic entry
// when its last subscriber goes.
func (m *MemorySubscribed) Unsubscribe(topicName string, c *conn) {
	c.topics.Remove(topicName)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeEdgeLocked(topicName, c)
}

func (m *MemorySubscribed) removeEdgeLocked(topicName string, c *conn) {
	set, ok := m.maps[topicName]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.maps, topicName)
	}
}

// DropConn removes every edge involving the session. Called exactly once
// when the session transitions to Closed.
func (m *MemorySubscribed) DropConn(c *conn) {
	names := c.topics.Topics()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, topicName := range names {
		c.topics.Remove(topicName)
		m.removeEdgeLocked(topicName, c)
	}
}

// Subscribers returns the sessions subscribed to exactly topicName,
// ordered by client id. The ordering carries no protocol meaning but two
// calls on the same state yield the same sequence, which keeps a single
// broadcast deterministic.
func (m *MemorySubscribed) Subscribers(topicName string) []*conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.maps[topicName]
	subscribers := make([]*conn, 0, len(set))
	for c := range set {
		subscribers = append(subscribers, c)
	}
	sort.Slice(subscribers, func(i, j int) bool {
		if subscribers[i].ID != subscribers[j].ID {
			return subscribers[i].ID < subscribers[j].ID
		}
		return subscribers[i].remoteAddr < subscribers[j].remoteAddr
	})
	return subscribers
}

// Topics returns the number of topics with at least one subscriber.
func (m *MemorySubscribed) Topics() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.maps)
}

func (m *MemorySubscribed) Print() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for topicName, set := range m.maps {
		log.Printf("[%s], conn=%d", topicName, len(set))
	}
}

// Exchange delivers one publication to every subscriber of its topic as
// a QoS 0 PUBLISH. The publisher itself is skipped unless reflection is
// enabled; the switch is read once per publish, not per subscriber. All
// deliveries of a broadcast complete before Exchange returns, so a
// subscriber observes messages in the order the publisher sent them.
// A failed write tears down the receiving session only.
func (m *MemorySubscribed) Exchange(message *packet.Message, publisher *conn) error {
	subscribers := m.Subscribers(message.TopicName)
	reflect := m.s.Reflect

	group := new(errgroup.Group)
	for _, c := range subscribers {
		if c == publisher && !reflect {
			continue
		}
		if state, _ := c.getState(); state >= StateDraining {
			continue
		}
		group.Go(func() error {
			pub := &packet.PUBLISH{
				FixedHeader: &packet.FixedHeader{Kind: PUBLISH},
				Message:     message,
			}
			w := &response{conn: c}
			if err := w.OnSend(pub); err != nil {
				log.Printf("deliver failed: clientId=%s, topic=%s, err=%v", c.ID, message.TopicName, err)
			}
			return nil
		})
	}
	return group.Wait()
}

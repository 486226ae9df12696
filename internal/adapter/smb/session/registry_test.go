package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddFindRemove(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)

	s := New(10, "smb", nil)
	r.Add(s)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Find(10)
	require.True(t, ok)
	assert.Same(t, s, got)

	removed, ok := r.Remove(10)
	require.True(t, ok)
	assert.Same(t, s, removed)
	assert.Equal(t, 0, r.Len())

	// Second removal is a no-op.
	removed, ok = r.Remove(10)
	assert.False(t, ok)
	assert.Nil(t, removed)

	_, ok = r.Find(10)
	assert.False(t, ok)
}

func TestRegistryAddReplaces(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)

	first := New(3, "smb", nil)
	second := New(3, "smb", nil)
	r.Add(first)
	r.Add(second)

	assert.Equal(t, 1, r.Len())
	got, _ := r.Find(3)
	assert.Same(t, second, got)
}

func TestRegistrySnapshots(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	for _, id := range []uint32{5, 1, 3} {
		r.Add(New(id, "smb", nil))
	}

	assert.Equal(t, []uint32{1, 3, 5}, r.IDs())

	list := r.Sessions()
	require.Len(t, list, 3)
	assert.Equal(t, uint32(1), list[0].ID())

	// Mutating the registry does not affect a snapshot already taken.
	ids := r.IDs()
	r.Remove(1)
	assert.Len(t, ids, 3)

	all := r.RemoveAll()
	assert.Len(t, all, 2)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	var gen IDGenerator

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := New(gen.Next(), "smb", nil)
				r.Add(s)
				_ = r.IDs()
				if i%2 == 0 {
					r.Remove(s.ID())
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, r.Len())
}

func TestIDGeneratorSkipsZero(t *testing.T) {
	var g IDGenerator
	g.next.Store(^uint32(0) - 1)

	assert.Equal(t, ^uint32(0), g.Next())
	assert.Equal(t, uint32(1), g.Next())
}

func TestRegistryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := NewRegistry(m)

	for i := uint32(1); i <= 3; i++ {
		r.Add(New(i, "smb", nil))
	}
	r.Remove(2)
	r.Remove(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Active.WithLabelValues("smb")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Opened.WithLabelValues("smb")))

	m.ObserveLogon(LogonGuest)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logons.WithLabelValues("Guest")))
}

func TestRegistryReplaceKeepsActiveGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := NewRegistry(m)

	r.Add(New(9, "tcp", nil))
	r.Add(New(9, "tcp", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Active.WithLabelValues("tcp")))

	r.Add(New(9, "netbios", nil))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Active.WithLabelValues("tcp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Active.WithLabelValues("netbios")))

	r.Remove(9)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Active.WithLabelValues("netbios")))
}

func TestListeners(t *testing.T) {
	var ls Listeners
	var events []string

	for i := 0; i < 2; i++ {
		n := i
		ls.Add(ListenerFuncs{
			Opened: func(s *Session) { events = append(events, fmt.Sprintf("open%d:%d", n, s.ID())) },
			Closed: func(s *Session) { events = append(events, fmt.Sprintf("close%d:%d", n, s.ID())) },
		})
	}
	assert.Equal(t, 2, ls.Len())

	s := New(9, "smb", nil)
	ls.NotifyOpened(s)
	ls.NotifyLoggedOn(s) // no LoggedOn funcs set
	ls.NotifyClosed(s)

	assert.Equal(t, []string{"open0:9", "open1:9", "close0:9", "close1:9"}, events)
}

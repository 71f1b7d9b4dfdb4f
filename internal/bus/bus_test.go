package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/llehouerou/alephplay/internal/catalog"
)

func TestTopic_PublishDeliversInOrder(t *testing.T) {
	topic := NewTopic[NowPlaying](ChannelNowPlaying)
	var got []string

	topic.Subscribe(func(e NowPlaying) { got = append(got, "a:"+e.Track.ID) })
	topic.Subscribe(func(e NowPlaying) { got = append(got, "b:"+e.Track.ID) })

	topic.Publish(NowPlaying{Track: catalog.Track{ID: "s1"}})

	assert.Equal(t, []string{"a:s1", "b:s1"}, got)
}

func TestTopic_PublishIsSynchronous(t *testing.T) {
	topic := NewTopic[PlayRequest](ChannelPlayRequested)
	delivered := false
	topic.Subscribe(func(PlayRequest) { delivered = true })

	topic.Publish(PlayRequest{TrackID: "x"})

	if !delivered {
		t.Error("subscriber should run before Publish returns")
	}
}

func TestTopic_Unsubscribe(t *testing.T) {
	topic := NewTopic[Advance](ChannelAdvance)
	count := 0
	unsub := topic.Subscribe(func(Advance) { count++ })

	topic.Publish(Advance{})
	unsub()
	unsub() // idempotent
	topic.Publish(Advance{})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if topic.Len() != 0 {
		t.Errorf("Len() = %d, want 0", topic.Len())
	}
}

func TestTopic_ChangesDuringPublishApplyNextTime(t *testing.T) {
	topic := NewTopic[Retreat](ChannelRetreat)
	var calls []string
	var unsubSecond func()

	topic.Subscribe(func(Retreat) {
		calls = append(calls, "first")
		unsubSecond()
		topic.Subscribe(func(Retreat) { calls = append(calls, "late") })
	})
	unsubSecond = topic.Subscribe(func(Retreat) { calls = append(calls, "second") })

	topic.Publish(Retreat{})
	assert.Equal(t, []string{"first", "second"}, calls)

	calls = nil
	unsubSecond = func() {}
	topic.Publish(Retreat{})
	assert.Equal(t, []string{"first", "late"}, calls)
}

func TestTopic_ReentrantPublish(t *testing.T) {
	b := New()
	var order []string

	b.Advance.Subscribe(func(Advance) {
		order = append(order, "advance")
		b.PlayRequested.Publish(PlayRequest{TrackID: "next"})
	})
	b.PlayRequested.Subscribe(func(r PlayRequest) {
		order = append(order, "play:"+r.TrackID)
	})

	b.Advance.Publish(Advance{})

	assert.Equal(t, []string{"advance", "play:next"}, order)
}

func TestTopic_PanickingSubscriberIsIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	b := NewWithLogger(zap.New(core))
	var got []string

	b.NowPlaying.Subscribe(func(NowPlaying) { panic("broken surface") })
	b.NowPlaying.Subscribe(func(e NowPlaying) { got = append(got, e.Track.ID) })

	assert.NotPanics(t, func() {
		b.NowPlaying.Publish(NowPlaying{Track: catalog.Track{ID: "s1"}})
	})
	b.NowPlaying.Publish(NowPlaying{Track: catalog.Track{ID: "s2"}})

	assert.Equal(t, []string{"s1", "s2"}, got)
	entries := logs.FilterMessage("subscriber panicked").All()
	require.Len(t, entries, 2)
	assert.Equal(t, string(ChannelNowPlaying), entries[0].ContextMap()["channel"])
}

func TestBus_TopicNames(t *testing.T) {
	b := New()
	names := []Channel{
		b.NowPlaying.Name(),
		b.Advance.Name(),
		b.Retreat.Name(),
		b.PlayRequested.Name(),
		b.TrackFinished.Name(),
	}
	assert.Equal(t, Channels(), names)
}

func TestGroup_CloseUnsubscribesAll(t *testing.T) {
	b := New()
	var g Group
	g.Add(b.NowPlaying.Subscribe(func(NowPlaying) {}))
	g.Add(b.Advance.Subscribe(func(Advance) {}))

	g.Close()
	g.Close()

	assert.Equal(t, 0, b.NowPlaying.Len())
	assert.Equal(t, 0, b.Advance.Len())
}

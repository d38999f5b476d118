package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{ id string }

func (s nopSink) ID() string            { return s.id }
func (s nopSink) Enqueue(_ []byte) bool { return true }
func (s nopSink) Close()                {}

func TestMembershipAddOverwrites(t *testing.T) {
	m := NewMembership()

	m.Add(NewParticipant("alice", "Alice", "#111111", fixedNow), "s1")
	m.Add(NewParticipant("bob", "", "", fixedNow), "s2")
	m.Add(NewParticipant("alice", "Alice 2", "#222222", fixedNow.Add(1)), "s3")

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].ID)
	assert.Equal(t, "Alice 2", all[0].Name)
	assert.Equal(t, "#222222", all[0].Color)
	assert.Equal(t, fixedNow, all[0].JoinedAt)
	assert.Equal(t, "s3", all[0].Owner())

	assert.Equal(t, "bob", all[1].Name)
	assert.Equal(t, ColorFor("bob"), all[1].Color)
}

func TestMembershipRemove(t *testing.T) {
	m := NewMembership()
	m.Add(NewParticipant("alice", "", "", fixedNow), "s1")

	assert.Nil(t, m.Remove("nobody"))

	removed := m.Remove("alice")
	require.NotNil(t, removed)
	assert.False(t, removed.Online)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.All())
}

func TestColorForIsStable(t *testing.T) {
	assert.Equal(t, ColorFor("some-user"), ColorFor("some-user"))
	assert.Contains(t, palette, ColorFor("another-user"))
}

func TestRoomUnbindRemovesOwner(t *testing.T) {
	room := NewRoom("r1", nil)
	room.Bind(nopSink{"s1"}, NewParticipant("alice", "", "", fixedNow))

	left := room.Unbind("s1")
	require.NotNil(t, left)
	assert.Equal(t, "alice", left.ID)
	assert.True(t, room.Empty())
}

func TestRoomUnbindTransfersSharedIdentity(t *testing.T) {
	room := NewRoom("r1", nil)
	room.Bind(nopSink{"s1"}, NewParticipant("alice", "", "", fixedNow))
	room.Bind(nopSink{"s2"}, NewParticipant("alice", "", "", fixedNow))

	p, ok := room.Members.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "s2", p.Owner())

	assert.Nil(t, room.Unbind("s2"), "s1 still speaks for alice")
	assert.Equal(t, "s1", p.Owner())
	assert.Equal(t, 1, room.Members.Len())
	assert.False(t, room.Empty())

	left := room.Unbind("s1")
	require.NotNil(t, left)
	assert.True(t, room.Empty())
}

func TestRoomUnbindStaleConnection(t *testing.T) {
	room := NewRoom("r1", nil)
	room.Bind(nopSink{"s1"}, NewParticipant("alice", "", "", fixedNow))
	room.Bind(nopSink{"s2"}, NewParticipant("alice", "", "", fixedNow))

	assert.Nil(t, room.Unbind("s1"), "s1 no longer owns alice")
	assert.Equal(t, 1, room.Members.Len())
	assert.Nil(t, room.Unbind("unknown"))
}

func TestRoomSinks(t *testing.T) {
	room := NewRoom("r1", nil)
	room.Bind(nopSink{"s1"}, NewParticipant("alice", "", "", fixedNow))
	room.Bind(nopSink{"s2"}, NewParticipant("bob", "", "", fixedNow))

	assert.Len(t, room.Sinks(""), 2)

	others := room.Sinks("s1")
	require.Len(t, others, 1)
	assert.Equal(t, "s2", others[0].ID())
}

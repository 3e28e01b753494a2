package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"global", "group", "private"} {
		kind, ok := ParseKind(valid)
		assert.True(t, ok)
		assert.Equal(t, Kind(valid), kind)
	}

	for _, invalid := range []string{"", "Global", "direct", "group "} {
		_, ok := ParseKind(invalid)
		assert.False(t, ok, "kind %q must be rejected", invalid)
	}
}

func TestIdentityChannel(t *testing.T) {
	id := Identity{Kind: KindGroup, Name: "alice-group-team"}
	assert.Equal(t, "group-alice-group-team", id.Channel())
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "alice-group-team", GroupName("alice", "team"))
}

func TestPrivateNameIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PrivateName("alice", "bob"), PrivateName("bob", "alice"))
	assert.Equal(t, "alice_bob", PrivateName("bob", "alice"))
}

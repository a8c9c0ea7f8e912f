package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorUUID_Stable(t *testing.T) {
	a := ActorUUID("user-42")
	b := ActorUUID("user-42")
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestActorUUID_DistinctActors(t *testing.T) {
	assert.NotEqual(t, ActorUUID("user-1"), ActorUUID("user-2"))
}

func TestActorUUID_BlankIsSystem(t *testing.T) {
	assert.Equal(t, ActorUUID("system"), ActorUUID(""))
	assert.Equal(t, ActorUUID("system"), ActorUUID("  "))
}

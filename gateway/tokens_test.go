package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotIsUnaffectedByRotation(t *testing.T) {
	store := NewTokenStore(Config{Session: "salon", Token: "old"})

	snap := store.Snapshot()
	store.SetToken("new")

	assert.Equal(t, "old", snap.Token)
	assert.Equal(t, "new", store.Snapshot().Token)
	assert.Equal(t, "salon", store.Snapshot().Session)
}

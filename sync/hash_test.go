package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash_StableUnderKeyOrder(t *testing.T) {
	a := map[string]interface{}{"name": "Sprint 1", "state": "active"}
	b := map[string]interface{}{"state": "active", "name": "Sprint 1"}
	assert.Equal(t, ContentHash(a), ContentHash(b))
}

func TestContentHash_ChangesWithValue(t *testing.T) {
	a := map[string]interface{}{"name": "Sprint 1", "state": "active"}
	b := map[string]interface{}{"name": "Sprint 1", "state": "closed"}
	assert.NotEqual(t, ContentHash(a), ContentHash(b))
}

func TestContentHash_EmptyRecordIsDeterministic(t *testing.T) {
	assert.Equal(t, ContentHash(map[string]interface{}{}), ContentHash(map[string]interface{}{}))
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_SeedsOriginalConcept(t *testing.T) {
	l := NewLedger("img-0")

	require.Equal(t, 1, l.Len())
	v := l.Current()
	assert.Equal(t, "img-0", v.Payload)
	assert.Equal(t, OriginalConceptLabel, v.Instruction)
	assert.NotEmpty(t, v.ID)
}

func TestLedger_AppendMakesNewVersionCurrent(t *testing.T) {
	l := NewLedger("img-0")

	v1 := l.Append("img-1", "make it taller")
	v2 := l.Append("img-2", "add a canopy")

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, v2.ID, l.Current().ID)

	versions := l.Versions()
	require.Len(t, versions, 3)
	assert.Equal(t, OriginalConceptLabel, versions[0].Instruction)
	assert.Equal(t, v1.ID, versions[1].ID)
	assert.Equal(t, v2.ID, versions[2].ID)
}

func TestLedger_RestoreMovesPointerOnly(t *testing.T) {
	l := NewLedger("img-0")
	v1 := l.Append("img-1", "make it taller")
	l.Append("img-2", "add a canopy")

	got, err := l.Restore(v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, got.ID)
	assert.Equal(t, v1.ID, l.Current().ID)

	// History is intact after the restore.
	assert.Equal(t, 3, l.Len())

	// Appending after a restore extends the history, never truncates it.
	v3 := l.Append("img-3", "new direction")
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, v3.ID, l.Current().ID)
}

func TestLedger_RestoreUnknownVersion(t *testing.T) {
	l := NewLedger("img-0")

	_, err := l.Restore("nope")
	assert.ErrorIs(t, err, ErrVersionNotFound)
	assert.Equal(t, "img-0", l.Current().Payload)
}

func TestConversation_AppendOnly(t *testing.T) {
	c := NewConversation()
	assert.Equal(t, 0, c.Len())

	c.Append(RoleUser, "make it taller", "")
	m := c.Append(RoleSystem, "Updated the concept: make it taller", "img-1")

	require.Equal(t, 2, c.Len())
	turns := c.Turns()
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, m.ID, turns[1].ID)
	assert.Equal(t, "img-1", turns[1].Image)
}

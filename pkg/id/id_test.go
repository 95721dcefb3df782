package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestNewAtCarriesTimestamp(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	s := NewAt(at)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, at.Equal(got), "got %v want %v", got, at)
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}

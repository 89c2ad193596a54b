package migration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestStepsAreOrdered(t *testing.T) {
	seen := map[int]bool{}
	for i, s := range Steps {
		assert.False(t, seen[s.Version], "version %d reused", s.Version)
		seen[s.Version] = true
		if i > 0 {
			assert.Greater(t, s.Version, Steps[i-1].Version)
		}
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, s.SQL)
	}
}

func TestPending(t *testing.T) {
	steps := []Step{{Version: 1}, {Version: 2}, {Version: 3}}

	assert.Len(t, Pending(steps, 0), 3)
	got := Pending(steps, 2)
	if assert.Len(t, got, 1) {
		assert.Equal(t, 3, got[0].Version)
	}
	assert.Empty(t, Pending(steps, 3))
}

func TestIsDuplicateObject(t *testing.T) {
	assert.True(t, IsDuplicateObject(&pq.Error{Code: "42710"}))
	assert.True(t, IsDuplicateObject(fmt.Errorf("exec: %w", &pq.Error{Code: "42P07"})))
	assert.False(t, IsDuplicateObject(&pq.Error{Code: "23505"}))
	assert.False(t, IsDuplicateObject(errors.New("boom")))
}

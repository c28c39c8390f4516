package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/support-desk/internal/domain"
)

func TestPickLeastLoaded(t *testing.T) {
	a := domain.User{ID: agentAID}
	b := domain.User{ID: agentBID}
	c := domain.User{ID: agentCID}

	tests := []struct {
		name       string
		candidates []domain.User
		loads      map[string]int
		want       string
		found      bool
	}{
		{"minimum load wins", []domain.User{a, b, c}, map[string]int{a.ID: 2, b.ID: 0, c.ID: 1}, b.ID, true},
		{"tie goes to lowest id", []domain.User{c, b}, map[string]int{}, b.ID, true},
		{"missing load counts as zero", []domain.User{a, c}, map[string]int{a.ID: 1}, c.ID, true},
		{"no candidates", nil, nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickLeastLoaded(tt.candidates, tt.loads)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestLoadIndexLoadsZeroFillsAgents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addAgent(agentAID, "alice", f.category.ID)
	b := f.addAgent(agentBID, "bob", f.category.ID)
	f.createTicket(t, "one", f.category.ID)

	index := NewLoadIndex(f.repos)
	candidates, err := index.Candidates(ctx, f.category.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	loads, err := index.Loads(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID: 1, b.ID: 0}, loads)

	none, err := index.Select(ctx, f.emptyCategory.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

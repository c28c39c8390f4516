package service

import (
	"context"

	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
)

// LoadIndex ranks the agents of a category by current workload. Load is the
// number of OPEN tickets on which the agent holds the active assignment.
type LoadIndex struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
}

// NewLoadIndex reads through repos, usually bound to a unit of work.
func NewLoadIndex(repos repository.Repositories) *LoadIndex {
	return &LoadIndex{users: repos.Users, assignments: repos.Assignments}
}

// Candidates returns the enabled agents whose category set contains categoryID.
func (l *LoadIndex) Candidates(ctx context.Context, categoryID string) ([]domain.User, error) {
	agents, err := l.users.ListAgentsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	eligible := agents[:0]
	for _, a := range agents {
		if a.Role == domain.UserRoleAgent && a.Enabled && a.InCategory(categoryID) {
			eligible = append(eligible, a)
		}
	}
	return eligible, nil
}

// Loads returns the load of each agent id. Agents without tickets map to 0.
func (l *LoadIndex) Loads(ctx context.Context, agentIDs []string) (map[string]int, error) {
	counts, err := l.assignments.CountOpenActive(ctx, agentIDs)
	if err != nil {
		return nil, err
	}
	loads := make(map[string]int, len(agentIDs))
	for _, id := range agentIDs {
		loads[id] = counts[id]
	}
	return loads, nil
}

// Select returns the least loaded candidate for categoryID, or nil when the
// category has no eligible agent.
func (l *LoadIndex) Select(ctx context.Context, categoryID string) (*domain.User, error) {
	candidates, err := l.Candidates(ctx, categoryID)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	loads, err := l.Loads(ctx, ids)
	if err != nil {
		return nil, err
	}
	agent, ok := PickLeastLoaded(candidates, loads)
	if !ok {
		return nil, nil
	}
	return &agent, nil
}

// PickLeastLoaded returns the candidate with the smallest load. Ties go to the
// lowest agent id so the choice does not depend on candidate order.
func PickLeastLoaded(candidates []domain.User, loads map[string]int) (domain.User, bool) {
	if len(candidates) == 0 {
		return domain.User{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		cl, bl := loads[c.ID], loads[best.ID]
		if cl < bl || (cl == bl && c.ID < best.ID) {
			best = c
		}
	}
	return best, true
}

package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// ReferenceSet accumulates the user ids referenced by detector findings,
// grouped by role, plus the referenced repository ids.
type ReferenceSet struct {
	byRole    map[model.LeaderboardRole][]int64
	roleSeen  map[model.LeaderboardRole]map[int64]bool
	userOrder []int64
	userSeen  map[int64]bool
	repoOrder []int64
	repoSeen  map[int64]bool
}

// NewReferenceSet creates an empty set.
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{
		byRole:   make(map[model.LeaderboardRole][]int64),
		roleSeen: make(map[model.LeaderboardRole]map[int64]bool),
		userSeen: make(map[int64]bool),
		repoSeen: make(map[int64]bool),
	}
}

// AddUsers records user ids under a role. Zero ids are ignored.
func (s *ReferenceSet) AddUsers(role model.LeaderboardRole, ids ...int64) {
	seen, ok := s.roleSeen[role]
	if !ok {
		seen = make(map[int64]bool)
		s.roleSeen[role] = seen
	}
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if !seen[id] {
			seen[id] = true
			s.byRole[role] = append(s.byRole[role], id)
		}
		if !s.userSeen[id] {
			s.userSeen[id] = true
			s.userOrder = append(s.userOrder, id)
		}
	}
}

// AddRepository records a repository id.
func (s *ReferenceSet) AddRepository(id int64) {
	if id == 0 || s.repoSeen[id] {
		return
	}
	s.repoSeen[id] = true
	s.repoOrder = append(s.repoOrder, id)
}

// UserIDs returns every referenced user id once, in first-seen order.
func (s *ReferenceSet) UserIDs() []int64 { return append([]int64(nil), s.userOrder...) }

// RepositoryIDs returns every referenced repository id once, in first-seen order.
func (s *ReferenceSet) RepositoryIDs() []int64 { return append([]int64(nil), s.repoOrder...) }

// Role returns the user ids referenced under role, in first-seen order.
func (s *ReferenceSet) Role(role model.LeaderboardRole) []int64 {
	return append([]int64(nil), s.byRole[role]...)
}

// References is a resolved lookup of user and repository display projections.
type References struct {
	users map[int64]model.UserReference
	repos map[int64]model.RepositoryReference
}

// User returns the reference for id. Unknown ids yield a reference carrying
// only the id.
func (r References) User(id int64) model.UserReference {
	if ref, ok := r.users[id]; ok {
		return ref
	}
	return model.UserReference{ID: id}
}

// Users returns references for ids, preserving order.
func (r References) Users(ids []int64) []model.UserReference {
	out := make([]model.UserReference, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.User(id))
	}
	return out
}

// Repository returns the reference for id. Unknown ids yield a reference
// carrying only the id.
func (r References) Repository(id int64) model.RepositoryReference {
	if ref, ok := r.repos[id]; ok {
		return ref
	}
	return model.RepositoryReference{ID: id}
}

// ReferenceResolver batch-resolves user and repository ids into references.
type ReferenceResolver struct {
	users driven.UserStore
	repos driven.RepoStore
}

// NewReferenceResolver creates a new ReferenceResolver.
func NewReferenceResolver(users driven.UserStore, repos driven.RepoStore) *ReferenceResolver {
	return &ReferenceResolver{users: users, repos: repos}
}

// Resolve looks up every id of set in one user query and one repository query.
func (r *ReferenceResolver) Resolve(ctx context.Context, set *ReferenceSet) (References, error) {
	refs := References{
		users: make(map[int64]model.UserReference),
		repos: make(map[int64]model.RepositoryReference),
	}

	if ids := set.UserIDs(); len(ids) > 0 {
		users, err := r.users.GetByIDs(ctx, ids)
		if err != nil {
			return References{}, fmt.Errorf("resolve users: %w", err)
		}
		for _, u := range users {
			refs.users[u.ID] = u.Reference()
		}
	}

	if ids := set.RepositoryIDs(); len(ids) > 0 {
		repos, err := r.repos.GetByIDs(ctx, ids)
		if err != nil {
			return References{}, fmt.Errorf("resolve repositories: %w", err)
		}
		for _, repo := range repos {
			refs.repos[repo.ID] = repo.Reference()
		}
	}

	return refs, nil
}

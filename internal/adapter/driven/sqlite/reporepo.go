package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

// RepoRepo is the SQLite implementation of the RepoStore port interface.
type RepoRepo struct {
	db *DB
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db}
}

// GetByIDs returns the repositories with the given ids in id order.
func (r *RepoRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Repository, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, name, name_with_owner
		FROM repositories
		WHERE id IN (SELECT value FROM json_each(?))
		ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, idList(ids))
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var repo model.Repository
		if err := rows.Scan(&repo.ID, &repo.Name, &repo.NameWithOwner); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

// GetByNameWithOwner looks up a repository by its "owner/name" identifier.
// Returns driven.ErrRepoNotFound when no repository matches.
func (r *RepoRepo) GetByNameWithOwner(ctx context.Context, nameWithOwner string) (model.Repository, error) {
	const query = `SELECT id, name, name_with_owner FROM repositories WHERE name_with_owner = ?`

	var repo model.Repository
	err := r.db.Reader.QueryRowContext(ctx, query, nameWithOwner).Scan(&repo.ID, &repo.Name, &repo.NameWithOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Repository{}, fmt.Errorf("get repository %s: %w", nameWithOwner, driven.ErrRepoNotFound)
	}
	if err != nil {
		return model.Repository{}, fmt.Errorf("get repository %s: %w", nameWithOwner, err)
	}
	return repo, nil
}

// ListRepositoryMaintainers returns maintainer user ids keyed by repository id,
// each list ordered by user id.
func (r *RepoRepo) ListRepositoryMaintainers(ctx context.Context) (map[int64][]int64, error) {
	const query = `SELECT repository_id, user_id FROM repository_maintainers ORDER BY repository_id, user_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query repository_maintainers: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var repoID, userID int64
		if err := rows.Scan(&repoID, &userID); err != nil {
			return nil, fmt.Errorf("scan repository maintainer: %w", err)
		}
		out[repoID] = append(out[repoID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repository_maintainers: %w", err)
	}

	return out, nil
}

// ListOrganizationMaintainers returns organization-wide maintainer ids ordered by id.
func (r *RepoRepo) ListOrganizationMaintainers(ctx context.Context) ([]int64, error) {
	const query = `SELECT user_id FROM organization_maintainers ORDER BY user_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query organization_maintainers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan organization maintainer: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization_maintainers: %w", err)
	}

	return ids, nil
}

// SetRepositoryMaintainers replaces the maintainer list of one repository.
func (r *RepoRepo) SetRepositoryMaintainers(ctx context.Context, repositoryID int64, userIDs []int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repository_maintainers WHERE repository_id = ?`, repositoryID); err != nil {
		return fmt.Errorf("clear maintainers of repository %d: %w", repositoryID, err)
	}

	const insert = `INSERT OR IGNORE INTO repository_maintainers (repository_id, user_id) VALUES (?, ?)`
	for _, id := range userIDs {
		if _, err := tx.ExecContext(ctx, insert, repositoryID, id); err != nil {
			return fmt.Errorf("add maintainer %d to repository %d: %w", id, repositoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit repository maintainers: %w", err)
	}
	return nil
}

// SetOrganizationMaintainers replaces the organization-wide maintainer list.
func (r *RepoRepo) SetOrganizationMaintainers(ctx context.Context, userIDs []int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM organization_maintainers`); err != nil {
		return fmt.Errorf("clear organization maintainers: %w", err)
	}

	for _, id := range userIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO organization_maintainers (user_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("add organization maintainer %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit organization maintainers: %w", err)
	}
	return nil
}

package model

// Repository is a repository in the activity snapshot.
type Repository struct {
	ID            int64
	Name          string
	NameWithOwner string // e.g. "octocat/hello-world"
}

// RepositoryReference is the display projection of a repository embedded in
// attention items.
type RepositoryReference struct {
	ID            int64
	Name          string
	NameWithOwner string
}

// Reference returns the display projection of the repository.
func (r Repository) Reference() RepositoryReference {
	return RepositoryReference{ID: r.ID, Name: r.Name, NameWithOwner: r.NameWithOwner}
}

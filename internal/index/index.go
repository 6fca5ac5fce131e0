package index

// IdeaIndex defines the interface for vault index operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type IdeaIndex interface {
	UpsertIdea(row IdeaRow, body string, related []int) error
	DeleteIdea(path string) error
	GetIdea(path string) (*IdeaRow, error)
	ListIdeas(limit, offset int, status string) ([]IdeaRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Referrers(id int) ([]string, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	NextID() (int, error)
	Close() error
}

// Verify *DB satisfies IdeaIndex at compile time.
var _ IdeaIndex = (*DB)(nil)

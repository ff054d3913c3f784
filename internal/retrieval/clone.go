// Package retrieval checks out remote repositories into local directories.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"
)

// DefaultDepth limits clones to the latest commit.
const DefaultDepth = 1

// ErrRetrieval marks failures to obtain a repository: unreachable hosts, private
// or missing repositories, and canceled or timed-out clones.
var ErrRetrieval = errors.New("repository retrieval failed")

// Cloner places a working tree of repositoryURL into destination.
type Cloner interface {
	Clone(ctx context.Context, repositoryURL string, destination string) error
}

// GitClonerOptions configures a GitCloner.
type GitClonerOptions struct {
	// Depth is the history depth; zero or less clones full history.
	Depth  int
	Logger *zap.Logger
}

// GitCloner clones repositories with go-git, without a git binary.
type GitCloner struct {
	depth  int
	logger *zap.Logger
}

// NewGitCloner constructs a GitCloner.
func NewGitCloner(options GitClonerOptions) *GitCloner {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	depth := options.Depth
	if depth < 0 {
		depth = 0
	}
	return &GitCloner{depth: depth, logger: logger}
}

// Clone checks out the default branch of repositoryURL into destination.
// Every failure wraps ErrRetrieval.
func (cloner *GitCloner) Clone(ctx context.Context, repositoryURL string, destination string) error {
	cloner.logger.Info("cloning repository", zap.String("repository", repositoryURL), zap.String("destination", destination))
	_, cloneErr := git.PlainCloneContext(ctx, destination, false, &git.CloneOptions{
		URL:          repositoryURL,
		Depth:        cloner.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if cloneErr != nil {
		return fmt.Errorf("%w: %s", ErrRetrieval, describeCloneError(cloneErr))
	}
	cloner.logger.Info("repository cloned", zap.String("repository", repositoryURL))
	return nil
}

func describeCloneError(cloneErr error) string {
	switch {
	case errors.Is(cloneErr, transport.ErrRepositoryNotFound):
		return "repository not found"
	case errors.Is(cloneErr, transport.ErrAuthenticationRequired), errors.Is(cloneErr, transport.ErrAuthorizationFailed):
		return "repository is private or requires authentication"
	case errors.Is(cloneErr, transport.ErrEmptyRemoteRepository):
		return "remote repository is empty"
	case errors.Is(cloneErr, context.DeadlineExceeded):
		return "clone timed out"
	default:
		return cloneErr.Error()
	}
}

var _ Cloner = (*GitCloner)(nil)

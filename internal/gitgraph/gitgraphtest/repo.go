package gitgraphtest

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Repo is one fake repository. Its exported methods are safe to call from
// tests while the server is handling requests.
type Repo struct {
	server   *Server
	fullName string
	store    *memory.Storage

	// CanPush is reported as the token's push permission.
	CanPush bool
}

// empty reports whether the repository has no branches. Callers hold the server lock.
func (r *Repo) empty() bool {
	iter, err := r.store.IterReferences()
	if err != nil {
		return true
	}
	found := false
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			found = true
			return storer.ErrStop
		}
		return nil
	})
	return !found
}

// head returns the commit a branch points at. Callers hold the server lock.
func (r *Repo) head(branch string) (plumbing.Hash, bool) {
	ref, err := r.store.Reference(plumbing.NewBranchReferenceName(branch))
	if err != nil {
		return plumbing.ZeroHash, false
	}
	return ref.Hash(), true
}

func (r *Repo) setHead(branch string, commit plumbing.Hash) error {
	return r.store.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), commit))
}

// Head returns the commit hash of branch, or "" when it does not exist.
func (r *Repo) Head(branch string) string {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()
	h, ok := r.head(branch)
	if !ok {
		return ""
	}
	return h.String()
}

// Files returns the content of every file at the head of branch, by path.
func (r *Repo) Files(branch string) map[string]string {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()

	files := map[string]string{}
	h, ok := r.head(branch)
	if !ok {
		return files
	}
	c, err := object.GetCommit(r.store, h)
	if err != nil {
		return files
	}
	tree, err := c.Tree()
	if err != nil {
		return files
	}
	_ = tree.Files().ForEach(func(f *object.File) error {
		content, err := f.Contents()
		if err != nil {
			return err
		}
		files[f.Name] = content
		return nil
	})
	return files
}

// History returns the commits reachable from branch by first parent,
// newest first.
func (r *Repo) History(branch string) []string {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()

	var hashes []string
	h, ok := r.head(branch)
	for ok {
		c, err := object.GetCommit(r.store, h)
		if err != nil {
			break
		}
		hashes = append(hashes, c.Hash.String())
		if len(c.ParentHashes) == 0 {
			break
		}
		h = c.ParentHashes[0]
	}
	return hashes
}

// Message returns the message of a commit, or "" when it does not exist.
func (r *Repo) Message(commit string) string {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()
	c, err := object.GetCommit(r.store, plumbing.NewHash(commit))
	if err != nil {
		return ""
	}
	return c.Message
}

// Author returns the author of a commit.
func (r *Repo) Author(commit string) object.Signature {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()
	c, err := object.GetCommit(r.store, plumbing.NewHash(commit))
	if err != nil {
		return object.Signature{}
	}
	return c.Author
}

// Commit writes files on top of branch as one commit and moves the branch
// to it, as if someone pushed. It returns the new commit hash.
func (r *Repo) Commit(branch string, files map[string]string, message string) (string, error) {
	r.server.mu.Lock()
	defer r.server.mu.Unlock()

	var parent, baseTree plumbing.Hash
	if h, ok := r.head(branch); ok {
		c, err := object.GetCommit(r.store, h)
		if err != nil {
			return "", err
		}
		parent, baseTree = h, c.TreeHash
	}

	all, err := flattenTree(r.store, baseTree)
	if err != nil {
		return "", err
	}
	for p, content := range files {
		blob, err := storeBlob(r.store, []byte(content))
		if err != nil {
			return "", err
		}
		all[p] = fileEntry{hash: blob, mode: filemode.Regular}
	}

	tree, err := storeTree(r.store, all)
	if err != nil {
		return "", err
	}
	commit, err := storeCommit(r.store, parent, tree, message, object.Signature{Name: "Someone Else", Email: "someone@example.com"})
	if err != nil {
		return "", err
	}
	if err := r.setHead(branch, commit); err != nil {
		return "", err
	}
	return commit.String(), nil
}

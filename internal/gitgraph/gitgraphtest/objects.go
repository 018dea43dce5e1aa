package gitgraphtest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

type fileEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

func storeBlob(store storer.EncodedObjectStorer, data []byte) (plumbing.Hash, error) {
	eo := store.NewEncodedObject()
	eo.SetType(plumbing.BlobObject)
	eo.SetSize(int64(len(data)))

	w, err := eo.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	_, err = w.Write(data)
	w.Close()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return store.SetEncodedObject(eo)
}

// flattenTree lists every file below treeHash by full path.
func flattenTree(store storer.EncodedObjectStorer, treeHash plumbing.Hash) (map[string]fileEntry, error) {
	files := make(map[string]fileEntry)
	if treeHash.IsZero() {
		return files, nil
	}
	tree, err := object.GetTree(store, treeHash)
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", treeHash, err)
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		files[f.Name] = fileEntry{hash: f.Hash, mode: f.Mode}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// storeTree writes nested tree objects for a flat path listing and returns
// the root tree hash.
func storeTree(store storer.EncodedObjectStorer, files map[string]fileEntry) (plumbing.Hash, error) {
	var entries []object.TreeEntry
	subdirs := make(map[string]map[string]fileEntry)

	for p, e := range files {
		if i := strings.IndexByte(p, '/'); i >= 0 {
			dir := p[:i]
			if subdirs[dir] == nil {
				subdirs[dir] = make(map[string]fileEntry)
			}
			subdirs[dir][p[i+1:]] = e
			continue
		}
		entries = append(entries, object.TreeEntry{Name: p, Mode: e.mode, Hash: e.hash})
	}

	for dir, children := range subdirs {
		hash, err := storeTree(store, children)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: dir, Mode: filemode.Dir, Hash: hash})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entrySortKey(&entries[i]) < entrySortKey(&entries[j])
	})

	tree := &object.Tree{Entries: entries}
	eo := store.NewEncodedObject()
	if err := tree.Encode(eo); err != nil {
		return plumbing.ZeroHash, err
	}
	return store.SetEncodedObject(eo)
}

// Git sorts tree entries as though directories have '/' appended to them.
func entrySortKey(e *object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func storeCommit(store storer.EncodedObjectStorer, parent, tree plumbing.Hash, message string, author object.Signature) (plumbing.Hash, error) {
	if author.When.IsZero() {
		author.When = time.Now()
	}
	commit := &object.Commit{
		Author:    author,
		Committer: author,
		Message:   message,
		TreeHash:  tree,
	}
	if !parent.IsZero() {
		commit.ParentHashes = []plumbing.Hash{parent}
	}

	eo := store.NewEncodedObject()
	if err := commit.Encode(eo); err != nil {
		return plumbing.ZeroHash, err
	}
	return store.SetEncodedObject(eo)
}

// isAncestor reports whether ancestor is reachable from commit (or equal to it).
func isAncestor(store storer.EncodedObjectStorer, ancestor, commit plumbing.Hash) (bool, error) {
	seen := map[plumbing.Hash]bool{}
	queue := []plumbing.Hash{commit}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == ancestor {
			return true, nil
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		c, err := object.GetCommit(store, h)
		if err != nil {
			return false, err
		}
		queue = append(queue, c.ParentHashes...)
	}
	return false, nil
}

// Package gitgraphtest provides an in-process fake of the hosting
// provider's git data API. Objects are real git objects stored with
// go-git, so hashes, trees and ancestry behave as they do on the provider.
package gitgraphtest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Operation names used for call counting and failure injection.
const (
	OpResolveRef   = "resolve-ref"
	OpGetCommit    = "get-commit"
	OpCreateBlob   = "create-blob"
	OpCreateTree   = "create-tree"
	OpCreateCommit = "create-commit"
	OpUpdateRef    = "update-ref"
	OpCreateRef    = "create-ref"
	OpPutContents  = "put-contents"
	OpGetRepo      = "get-repo"
)

var writeOps = []string{OpCreateBlob, OpCreateTree, OpCreateCommit, OpUpdateRef, OpCreateRef, OpPutContents}

// Server is a fake provider API served over HTTP.
type Server struct {
	srv   *httptest.Server
	token string

	mu        sync.Mutex
	repos     map[string]*Repo
	calls     map[string]int
	failures  map[string]int
	refHook   func()
	requested []string
}

// NewServer starts a fake provider that accepts only token. It is closed
// when the test completes.
func NewServer(t testing.TB, token string) *Server {
	t.Helper()
	s := &Server{
		token:    token,
		repos:    make(map[string]*Repo),
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}", s.handle(OpGetRepo, s.getRepo))
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/{ref...}", s.handle(OpResolveRef, s.resolveRef))
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/commits/{sha}", s.handle(OpGetCommit, s.getCommit))
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/blobs", s.handle(OpCreateBlob, s.createBlob))
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/trees", s.handle(OpCreateTree, s.createTree))
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/commits", s.handle(OpCreateCommit, s.createCommit))
	mux.HandleFunc("PATCH /repos/{owner}/{repo}/git/refs/{ref...}", s.handle(OpUpdateRef, s.updateRef))
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/refs", s.handle(OpCreateRef, s.createRef))
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", s.handle(OpPutContents, s.putContents))

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base URL.
func (s *Server) URL() string { return s.srv.URL }

// Client returns an HTTP client for the server.
func (s *Server) Client() *http.Client { return s.srv.Client() }

// CreateRepo registers an empty repository.
func (s *Server) CreateRepo(owner, name string) *Repo {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Repo{server: s, fullName: owner + "/" + name, store: memory.NewStorage(), CanPush: true}
	s.repos[r.fullName] = r
	return r
}

// Fail makes every call to op answer with status until cleared with 0.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, op)
		return
	}
	s.failures[op] = status
}

// BeforeNextRefUpdate runs fn once, just before the next ref update is
// applied. Tests use it to move a branch underneath a running sync.
func (s *Server) BeforeNextRefUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refHook = fn
}

// Calls returns how many requests reached op.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// WriteCalls returns how many write requests were made.
func (s *Server) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, op := range writeOps {
		n += s.calls[op]
	}
	return n
}

// AuthHeaders returns every Authorization header value received.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

type apiHandler func(w http.ResponseWriter, r *http.Request, repo *Repo)

func (s *Server) handle(op string, h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if op == OpUpdateRef {
			s.mu.Lock()
			hook := s.refHook
			s.refHook = nil
			s.mu.Unlock()
			if hook != nil {
				hook()
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.calls[op]++
		s.requested = append(s.requested, r.Header.Get("Authorization"))

		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeMessage(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		if status := s.failures[op]; status != 0 {
			writeMessage(w, status, "injected failure")
			return
		}

		repo := s.repos[r.PathValue("owner")+"/"+r.PathValue("repo")]
		if repo == nil {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		h(w, r, repo)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
		return false
	}
	return true
}

func decodeContent(content, encoding string) ([]byte, error) {
	if encoding == "utf-8" {
		return []byte(content), nil
	}
	return base64.StdEncoding.DecodeString(content)
}

func (s *Server) getRepo(w http.ResponseWriter, _ *http.Request, repo *Repo) {
	writeJSON(w, http.StatusOK, map[string]any{
		"full_name":      repo.fullName,
		"default_branch": "main",
		"permissions":    map[string]bool{"push": repo.CanPush},
	})
}

func (s *Server) resolveRef(w http.ResponseWriter, r *http.Request, repo *Repo) {
	ref := r.PathValue("ref")
	if repo.empty() {
		writeMessage(w, http.StatusConflict, "Git Repository is empty.")
		return
	}
	head, ok := repo.head(strings.TrimPrefix(ref, "heads/"))
	if !ok || !strings.HasPrefix(ref, "heads/") {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/" + ref,
		"object": map[string]string{"sha": head.String(), "type": "commit"},
	})
}

func (s *Server) getCommit(w http.ResponseWriter, r *http.Request, repo *Repo) {
	c, err := object.GetCommit(repo.store, plumbing.NewHash(r.PathValue("sha")))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	parents := make([]map[string]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = map[string]string{"sha": p.String()}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sha":     c.Hash.String(),
		"message": c.Message,
		"tree":    map[string]string{"sha": c.TreeHash.String()},
		"parents": parents,
	})
}

func (s *Server) createBlob(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if !decode(w, r, &req) {
		return
	}
	data, err := decodeContent(req.Content, req.Encoding)
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "invalid content")
		return
	}
	hash, err := storeBlob(repo.store, data)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sha": hash.String()})
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		BaseTree string `json:"base_tree"`
		Tree     []struct {
			Path string `json:"path"`
			Mode string `json:"mode"`
			Type string `json:"type"`
			SHA  string `json:"sha"`
		} `json:"tree"`
	}
	if !decode(w, r, &req) {
		return
	}

	var base plumbing.Hash
	if req.BaseTree != "" {
		base = plumbing.NewHash(req.BaseTree)
	}
	files, err := flattenTree(repo.store, base)
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "base_tree is not a valid tree")
		return
	}

	for _, e := range req.Tree {
		mode, err := filemode.New(e.Mode)
		if err != nil || e.Type != "blob" {
			writeMessage(w, http.StatusUnprocessableEntity, "unsupported tree entry")
			return
		}
		hash := plumbing.NewHash(e.SHA)
		if _, err := object.GetBlob(repo.store, hash); err != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "tree.sha "+e.SHA+" is not a valid blob")
			return
		}
		files[e.Path] = fileEntry{hash: hash, mode: mode}
	}

	hash, err := storeTree(repo.store, files)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sha": hash.String()})
}

func (s *Server) createCommit(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
		Author  *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Date  string `json:"date"`
		} `json:"author"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Parents) > 1 {
		writeMessage(w, http.StatusUnprocessableEntity, "merge commits are not supported")
		return
	}

	tree := plumbing.NewHash(req.Tree)
	if _, err := object.GetTree(repo.store, tree); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Tree SHA does not exist")
		return
	}
	var parent plumbing.Hash
	if len(req.Parents) == 1 {
		parent = plumbing.NewHash(req.Parents[0])
		if _, err := object.GetCommit(repo.store, parent); err != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "Parent SHA does not exist or is not a commit object")
			return
		}
	}

	author := object.Signature{Name: "Token Owner", Email: "owner@example.com"}
	if a := req.Author; a != nil {
		author.Name, author.Email = a.Name, a.Email
		if when, err := time.Parse(time.RFC3339, a.Date); err == nil {
			author.When = when
		}
	}

	hash, err := storeCommit(repo.store, parent, tree, req.Message, author)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sha":  hash.String(),
		"tree": map[string]string{"sha": tree.String()},
	})
}

func (s *Server) updateRef(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	if !decode(w, r, &req) {
		return
	}
	branch := strings.TrimPrefix(r.PathValue("ref"), "heads/")
	current, ok := repo.head(branch)
	if !ok {
		writeMessage(w, http.StatusUnprocessableEntity, "Reference does not exist")
		return
	}

	next := plumbing.NewHash(req.SHA)
	if _, err := object.GetCommit(repo.store, next); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}
	if !req.Force {
		ff, err := isAncestor(repo.store, current, next)
		if err != nil || !ff {
			writeMessage(w, http.StatusUnprocessableEntity, "Update is not a fast forward")
			return
		}
	}

	if err := repo.setHead(branch, next); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": next.String(), "type": "commit"},
	})
}

func (s *Server) createRef(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !strings.HasPrefix(req.Ref, "refs/heads/") {
		writeMessage(w, http.StatusUnprocessableEntity, "Reference name is not supported")
		return
	}
	branch := strings.TrimPrefix(req.Ref, "refs/heads/")
	if _, ok := repo.head(branch); ok {
		writeMessage(w, http.StatusUnprocessableEntity, "Reference already exists")
		return
	}
	hash := plumbing.NewHash(req.SHA)
	if _, err := object.GetCommit(repo.store, hash); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}
	if err := repo.setHead(branch, hash); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"ref":    req.Ref,
		"object": map[string]string{"sha": hash.String(), "type": "commit"},
	})
}

func (s *Server) putContents(w http.ResponseWriter, r *http.Request, repo *Repo) {
	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	if !decode(w, r, &req) {
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "content is not valid Base64")
		return
	}
	branch := req.Branch
	if branch == "" {
		branch = "main"
	}
	path := r.PathValue("path")

	var parent, baseTree plumbing.Hash
	if !repo.empty() {
		head, ok := repo.head(branch)
		if !ok {
			writeMessage(w, http.StatusNotFound, "Branch "+branch+" not found")
			return
		}
		c, err := object.GetCommit(repo.store, head)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		parent, baseTree = head, c.TreeHash
	}

	files, err := flattenTree(repo.store, baseTree)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, exists := files[path]; exists && req.SHA == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "\"sha\" wasn't supplied.")
		return
	}

	blob, err := storeBlob(repo.store, data)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	files[path] = fileEntry{hash: blob, mode: filemode.Regular}
	tree, err := storeTree(repo.store, files)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	commit, err := storeCommit(repo.store, parent, tree, req.Message, object.Signature{Name: "Token Owner", Email: "owner@example.com"})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := repo.setHead(branch, commit); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"content": map[string]string{"path": path, "sha": blob.String()},
		"commit": map[string]any{
			"sha":  commit.String(),
			"tree": map[string]string{"sha": tree.String()},
		},
	})
}

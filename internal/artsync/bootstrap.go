package artsync

import (
	"context"
	"fmt"
)

// SeedPath is the file written to give an empty repository its first commit.
const SeedPath = "README.md"

const seedMessage = "Initialize repository for content sync"

// seedReadme returns the explanatory readme written into empty repositories.
func seedReadme(folder string) []byte {
	where := "the repository root"
	if folder != "" {
		where = "`" + folder + "/`"
	}
	return fmt.Appendf(nil, `# Content library

This repository is published from a content library. Prompts, skills and
workflows are exported as markdown files under %s and updated on every sync.

Edits made here are not synced back.
`, where)
}

// Bootstrap gives an empty repository its first commit by writing a seed
// readme through the content endpoint, and returns that commit as the base
// for the sync. Callers must only invoke it when the branch head resolved
// to HeadEmptyRepository.
func Bootstrap(ctx context.Context, graph ObjectGraph, ep *Endpoint) (BaseCommit, error) {
	base, err := graph.PutFile(ctx, ep.Repository, ep.Branch, SeedPath, seedMessage, seedReadme(ep.Folder))
	if err != nil {
		return BaseCommit{}, fmt.Errorf("writing seed file: %w", err)
	}
	if base.Hash == "" || base.TreeHash == "" {
		return BaseCommit{}, fmt.Errorf("seed commit response is missing commit or tree hash")
	}
	return base, nil
}

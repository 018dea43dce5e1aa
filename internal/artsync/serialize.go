package artsync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// Slugify derives a path-safe slug from a title.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeFolder trims slashes and whitespace from a folder prefix.
// An empty result means the repository root.
func NormalizeFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return path.Clean(folder)
}

// slugFor returns the stored slug, the slugified title, or the record ID
// when the title has no slug-safe characters. Stored slugs are slugified
// too so they can never add path segments.
func slugFor(rec Record) string {
	if s := Slugify(rec.Slug); s != "" {
		return s
	}
	if s := Slugify(rec.Title); s != "" {
		return s
	}
	return Slugify(rec.ID)
}

// FilePath returns the repository path of a record under folder.
func FilePath(rec Record, folder string) string {
	name := rec.Kind.Plural() + "/" + slugFor(rec) + ".md"
	if folder = NormalizeFolder(folder); folder != "" {
		return folder + "/" + name
	}
	return name
}

// Serialize renders a record as a markdown file with a metadata header.
// The output depends only on the record and folder.
func Serialize(rec Record, folder string) (File, error) {
	fail := func(err error) (File, error) {
		return File{}, &SerializationError{Kind: rec.Kind, RecordID: rec.ID, Err: err}
	}

	if strings.TrimSpace(rec.Title) == "" {
		return fail(errors.New("record has no title"))
	}
	if slugFor(rec) == "" {
		return fail(errors.New("cannot derive a slug"))
	}

	var b strings.Builder
	writeHeader(&b, rec)

	b.WriteString("\n# ")
	b.WriteString(rec.Title)
	b.WriteString("\n")

	if desc := strings.TrimSpace(rec.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}

	switch rec.Kind {
	case KindPrompt:
		writeFenced(&b, "", rec.Body)
	case KindSkill:
		if body := strings.TrimRight(rec.Body, "\r\n"); body != "" {
			b.WriteString("\n")
			b.WriteString(body)
			b.WriteString("\n")
		}
	case KindWorkflow:
		doc, err := prettyDocument(rec.Document)
		if err != nil {
			return fail(err)
		}
		writeFenced(&b, "json", doc)
	default:
		return fail(fmt.Errorf("unknown record kind %q", rec.Kind))
	}

	return File{
		Path:     FilePath(rec, folder),
		Content:  []byte(b.String()),
		Kind:     rec.Kind,
		RecordID: rec.ID,
	}, nil
}

func prettyDocument(doc json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return "", errors.New("workflow has no document")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return "", fmt.Errorf("workflow document is not valid JSON: %w", err)
	}
	return buf.String(), nil
}

func writeHeader(b *strings.Builder, rec Record) {
	b.WriteString("---\n")
	field(b, "id", quoteIfNeeded(rec.ID))
	field(b, "title", quote(rec.Title))
	field(b, "slug", quoteIfNeeded(slugFor(rec)))
	field(b, "description", quote(strings.TrimSpace(rec.Description)))
	field(b, "category", quoteIfNeeded(rec.Category))
	field(b, "tags", list(rec.Tags))
	field(b, "is_public", strconv.FormatBool(rec.IsPublic))
	field(b, "rating_average", strconv.FormatFloat(rec.RatingAverage, 'f', -1, 64))
	field(b, "rating_count", strconv.FormatInt(rec.RatingCount, 10))
	field(b, "created_at", quoteIfNeeded(timestamp(rec.CreatedAt)))
	field(b, "updated_at", quoteIfNeeded(timestamp(rec.UpdatedAt)))
	b.WriteString("---\n")
}

func field(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var quoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

// quoteIfNeeded leaves plain values bare and quotes anything a header
// reader could misparse.
func quoteIfNeeded(s string) string {
	if s == "" || s != strings.TrimSpace(s) || strings.ContainsAny(s, ":\"#\\\n\r\t") {
		return quote(s)
	}
	return s
}

func list(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// writeFenced writes content inside a code fence long enough that no
// backtick run in content can close it.
func writeFenced(b *strings.Builder, lang, content string) {
	fence := strings.Repeat("`", max(3, longestBacktickRun(content)+1))
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString(lang)
	b.WriteString("\n")
	if content = strings.TrimRight(content, "\r\n"); content != "" {
		b.WriteString(content)
		b.WriteString("\n")
	}
	b.WriteString(fence)
	b.WriteString("\n")
}

func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}

func kindOrder(k Kind) int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// SerializeBatch serializes records in a stable order (kind, then creation
// time, then ID) and resolves path collisions by letting the later record
// win. The returned files are sorted by path.
func SerializeBatch(records []Record, folder string, logger Logger) ([]File, error) {
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ka, kb := kindOrder(a.Kind), kindOrder(b.Kind); ka != kb {
			return ka < kb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	byPath := make(map[string]File, len(ordered))
	for _, rec := range ordered {
		f, err := Serialize(rec, folder)
		if err != nil {
			return nil, err
		}
		if prev, ok := byPath[f.Path]; ok {
			logger.Warn("path collision, later record wins",
				"path", f.Path, "replaced", prev.RecordID, "winner", f.RecordID)
		}
		byPath[f.Path] = f
	}

	files := make([]File, 0, len(byPath))
	for _, f := range byPath {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// GitActivityAnalyzer derives activity scalars from a mirror's commit log.
type GitActivityAnalyzer struct {
	Client contract.GitClient
	Scope  schema.ActivityScope
}

var _ contract.ActivityAnalyzer = &GitActivityAnalyzer{} // Compile-time check

// Activity implements the ActivityAnalyzer interface.
func (a *GitActivityAnalyzer) Activity(ctx context.Context, mirrorDir, ref string) (schema.ActivityStats, error) {
	out, err := a.Client.GetActivityLog(ctx, mirrorDir, ref, a.Scope == schema.AllScope)
	if err != nil {
		return schema.ActivityStats{}, err
	}
	return ParseActivityLog(out)
}

// ParseActivityLog reads "email|YYYY-MM-DD" lines.
// ActiveDays counts distinct dates; ActiveDaysPerAuthor counts distinct (author, date) pairs.
func ParseActivityLog(out []byte) (schema.ActivityStats, error) {
	days := make(map[string]struct{})
	authorDays := make(map[string]struct{})
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		author, date, ok := strings.Cut(line, "|")
		if !ok || date == "" {
			return schema.ActivityStats{}, fmt.Errorf("activity log: %w: %q", ErrUnexpectedOutput, line)
		}
		days[date] = struct{}{}
		authorDays[strings.ToLower(author)+"|"+date] = struct{}{}
	}
	return schema.ActivityStats{ActiveDays: len(days), ActiveDaysPerAuthor: len(authorDays)}, nil
}

// GitAuthorCounter counts distinct authors with git shortlog.
type GitAuthorCounter struct {
	Client contract.GitClient
}

var _ contract.AuthorCounter = &GitAuthorCounter{} // Compile-time check

// Authors implements the AuthorCounter interface.
func (a *GitAuthorCounter) Authors(ctx context.Context, mirrorDir, ref string) (int, error) {
	out, err := a.Client.GetShortlog(ctx, mirrorDir, ref)
	if err != nil {
		return 0, err
	}
	return contract.CountNonEmptyLines(out), nil
}

package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// WikiRepoURL returns the git URL of a GitHub project's wiki.
// repo is "<user>/<project>".
func WikiRepoURL(repo string) (string, error) {
	user, project, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || user == "" || project == "" || strings.Contains(project, "/") {
		return "", fmt.Errorf("invalid repository %q (expected <user>/<project>)", repo)
	}
	return fmt.Sprintf("https://github.com/%s/%s.wiki.git", user, project), nil
}

// CloneWiki shallow-clones the wiki of repo into dest using the git CLI.
func CloneWiki(ctx context.Context, repo, dest string) error {
	url, err := WikiRepoURL(repo)
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", url, dest)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cloning %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package judge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teradata-labs/judge/internal/domain"
)

var docAllowedPrefixes = []string{"docs/", "ops/runbooks/"}

func isDocAllowedPath(path string) bool {
	if path == "README.md" {
		return true
	}
	for _, prefix := range docAllowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func allChangedFilesDocAllowed(changedFiles []string) bool {
	for _, f := range changedFiles {
		if !isDocAllowedPath(f) {
			return false
		}
	}
	return true
}

// detectRepoDocGap looks for the four documentation gaps named in spec
// §4.12 against a locally checked-out repository. When repoPath is empty
// (a PR candidate with no local checkout available) it conservatively
// reports a gap, since the absence of local repo state cannot prove
// there isn't one.
func detectRepoDocGap(repoPath string) bool {
	if repoPath == "" {
		return true
	}

	docsDir := filepath.Join(repoPath, "docs")
	info, err := os.Stat(docsDir)
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	if err == nil && info.IsDir() {
		entries, rerr := os.ReadDir(docsDir)
		if rerr == nil && len(entries) == 0 {
			return true
		}
	}

	if fileMissing(filepath.Join(repoPath, "README.md")) {
		return true
	}
	if fileMissing(filepath.Join(docsDir, "README.md")) {
		return true
	}
	return false
}

func fileMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// detectPackageManagerCheckCommand resolves the Docser task's
// verification command by lockfile sniff rather than hardcoding `make`
// or `pnpm run check` (spec §9 Open Question #2).
func detectPackageManagerCheckCommand(repoPath string) []string {
	if repoPath == "" {
		return nil
	}
	switch {
	case fileExists(filepath.Join(repoPath, "bun.lockb")):
		return []string{"bun", "run", "check"}
	case fileExists(filepath.Join(repoPath, "pnpm-lock.yaml")):
		return []string{"pnpm", "run", "check"}
	case fileExists(filepath.Join(repoPath, "yarn.lock")):
		return []string{"yarn", "run", "check"}
	case fileExists(filepath.Join(repoPath, "package-lock.json")):
		return []string{"npm", "run", "check"}
	case fileExists(filepath.Join(repoPath, "Makefile")):
		return []string{"make", "check"}
	default:
		return nil
	}
}

// TriggerDocser runs the Docser side-effect hook on a successful merge
// (spec §4.12): if the merged changes are fully confined to doc-allowed
// paths and no documentation gap exists, it is a no-op; otherwise it
// creates one dependent documentation task, guarded against duplicates
// by a prior docser.task_created event on the source task.
func TriggerDocser(ctx context.Context, svc *Services, sourceTask domain.Task, changedFiles []string, repoPath string) error {
	already, err := svc.Store.Events().ExistsByTypeAndEntity(ctx, domain.EventDocserTaskCreated, sourceTask.ID)
	if err != nil {
		return fmt.Errorf("check existing docser event for %s: %w", sourceTask.ID, err)
	}
	if already {
		return nil
	}

	if allChangedFilesDocAllowed(changedFiles) && !detectRepoDocGap(repoPath) {
		return nil
	}

	task := domain.Task{
		Title:            fmt.Sprintf("Documentation update: %s", sourceTask.Title),
		Goal:             fmt.Sprintf("Fill documentation gaps introduced by %q", sourceTask.Title),
		Role:             domain.RoleDocser,
		Status:           domain.TaskQueued,
		RiskLevel:        domain.RiskLow,
		AllowedPaths:     []string{"docs/**", "ops/runbooks/**", "README.md"},
		VerificationCmds: detectPackageManagerCheckCommand(repoPath),
		Dependencies:     []string{sourceTask.ID},
		TimeboxMinutes:   45,
		Kind:             domain.KindCode,
	}

	taskID, err := svc.Store.Tasks().Create(ctx, task)
	if err != nil {
		return fmt.Errorf("create docser task for %s: %w", sourceTask.ID, err)
	}
	recordEvent(ctx, svc, domain.EventDocserTaskCreated, domain.EntityTask, sourceTask.ID, map[string]any{
		"sourceTaskId": sourceTask.ID,
		"docserTaskId": taskID,
	})
	return nil
}

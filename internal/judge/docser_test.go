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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/judge/internal/domain"
)

func TestIsDocAllowedPath(t *testing.T) {
	assert.True(t, isDocAllowedPath("README.md"))
	assert.True(t, isDocAllowedPath("docs/guide.md"))
	assert.True(t, isDocAllowedPath("ops/runbooks/incident.md"))
	assert.False(t, isDocAllowedPath("internal/judge/pipeline.go"))
}

func TestAllChangedFilesDocAllowed(t *testing.T) {
	assert.True(t, allChangedFilesDocAllowed([]string{"README.md", "docs/a.md"}))
	assert.False(t, allChangedFilesDocAllowed([]string{"README.md", "main.go"}))
	assert.True(t, allChangedFilesDocAllowed(nil))
}

func TestDetectRepoDocGap_EmptyPathConservativelyAssumesGap(t *testing.T) {
	assert.True(t, detectRepoDocGap(""))
}

func TestDetectRepoDocGap_MissingDocsDirIsAGap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x"), 0o644))
	assert.True(t, detectRepoDocGap(dir))
}

func TestDetectRepoDocGap_CompleteRepoHasNoGap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x"), 0o644))
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "README.md"), []byte("# docs"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "guide.md"), []byte("# guide"), 0o644))

	assert.False(t, detectRepoDocGap(dir))
}

func TestDetectPackageManagerCheckCommand_SniffsLockfiles(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, detectPackageManagerCheckCommand(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pnpm-lock.yaml"), nil, 0o644))
	assert.Equal(t, []string{"pnpm", "run", "check"}, detectPackageManagerCheckCommand(dir))
}

func TestTriggerDocser_NoOpWhenChangesAreDocOnlyAndNoGap(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(newMemBackend())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x"), 0o644))
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "README.md"), []byte("# docs"), 0o644))

	sourceID, err := svc.Store.Tasks().Create(ctx, domain.Task{Title: "feature work"})
	require.NoError(t, err)
	task, err := svc.Store.Tasks().Get(ctx, sourceID)
	require.NoError(t, err)

	err = TriggerDocser(ctx, svc, *task, []string{"docs/guide.md"}, dir)
	require.NoError(t, err)

	exists, err := svc.Store.Events().ExistsByTypeAndEntity(ctx, domain.EventDocserTaskCreated, sourceID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTriggerDocser_DuplicateGuardPreventsSecondTask(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	svc := newTestServices(b)

	sourceID, err := svc.Store.Tasks().Create(ctx, domain.Task{Title: "feature work"})
	require.NoError(t, err)
	task, err := svc.Store.Tasks().Get(ctx, sourceID)
	require.NoError(t, err)

	require.NoError(t, TriggerDocser(ctx, svc, *task, []string{"main.go"}, ""))
	exists, err := svc.Store.Events().ExistsByTypeAndEntity(ctx, domain.EventDocserTaskCreated, sourceID)
	require.NoError(t, err)
	require.True(t, exists)

	// a second call must see the guard event and skip creating another task
	require.NoError(t, TriggerDocser(ctx, svc, *task, []string{"main.go"}, ""))
}

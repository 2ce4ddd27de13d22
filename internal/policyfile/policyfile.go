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

// Package policyfile loads the repository policy document named by
// JUDGE_POLICY_PATH: the auto-merge toggle the verdict engine consumes,
// plus the denied-command blocklist internal/pathpolicy enforces against
// every candidate's diff.
package policyfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/judge/internal/domain"
)

// Document is the on-disk shape of policy.yaml.
type Document struct {
	AutoMerge struct {
		Enabled                bool `yaml:"enabled"`
		LLMInformationalBypass bool `yaml:"llmInformationalBypass"`
	} `yaml:"autoMerge"`
	DeniedCommands []string `yaml:"deniedCommands"`
}

// Load reads and parses the policy document at path. A missing file is not
// an error: it resolves to an all-zero-value Document, since a repository
// with no policy.yaml simply runs with auto-merge disabled and no denied
// commands.
func Load(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("read policy file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return doc, nil
}

// Policy extracts the domain.Policy slice the verdict engine consumes.
func (d Document) Policy() domain.Policy {
	return domain.Policy{
		AutoMerge: domain.AutoMergePolicy{
			Enabled:                d.AutoMerge.Enabled,
			LLMInformationalBypass: d.AutoMerge.LLMInformationalBypass,
		},
	}
}

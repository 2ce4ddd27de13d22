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
package domain

// AutoMergePolicy controls the verdict engine's auto-merge and LLM-bypass
// behavior. LLMInformationalBypass resolves the Open Question in spec §9:
// the bypass is a configurable toggle, never a hardcoded branch.
type AutoMergePolicy struct {
	Enabled                bool
	LLMInformationalBypass bool
}

// Policy is the subset of repository policy the verdict engine consumes.
// The full policy document (path/line/command rules) is evaluated by the
// out-of-scope policy evaluator (spec §6); this is only the slice the
// verdict engine needs to make its decision.
type Policy struct {
	AutoMerge AutoMergePolicy
}

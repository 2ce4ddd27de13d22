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
package main

import (
	"github.com/spf13/cobra"

	"github.com/teradata-labs/judge/internal/version"
)

// rootCmd is the judge binary's base command. Unlike the teacher's looms
// root command there is no viper layer and no --config flag: every knob
// is an environment variable resolved by internal/config, so the process
// behaves identically whether started by a human or a supervisor.
var rootCmd = &cobra.Command{
	Use:     "judge",
	Short:   "Judge - autonomous code-review and merge-orchestration engine",
	Long:    `Judge polls pending pull requests and worktrees, evaluates them against CI, repository policy, and an LLM-assisted review, and drives each toward merge, auto-remediation, or permanent failure.`,
	Version: version.Get(),
}

func init() {
	rootCmd.SetHelpTemplate(`{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}

Configuration is environment-only; see internal/config for the full variable surface.

Support:
  GitHub: https://github.com/teradata-labs/judge/issues
`)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(explainCmd)
}

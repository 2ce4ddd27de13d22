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
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the store and the configured forge",
	Long: `Doctor resolves config, pings the Postgres store, and probes the
forge adapter's authenticated identity. It performs no mutation and exits
non-zero on the first failed check, the way an operator would confirm a
deployment's environment before starting serve.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	w, err := buildServices(ctx)
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	defer w.Close()

	if err := w.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "store: ok")

	login, err := w.svc.Forge.GetAuthenticatedUser(ctx)
	if err != nil {
		return fmt.Errorf("forge auth check failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "forge: ok (authenticated as %s)\n", login)

	return nil
}

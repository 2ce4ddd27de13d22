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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/judge/internal/judge"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Judge poll loop",
	Long: `Run the Judge's long-running poll loop.

Each tick recovers stuck backlog, drains the merge queue, scans and
processes pending PR/worktree candidates, and invokes any plugin-supplied
evaluators. A 30-second heartbeat runs alongside on its own schedule.

Press Ctrl+C to stop after the current tick finishes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	w, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	scheduler, err := judge.NewAuxiliaryScheduler(w.svc)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		w.svc.Log.Info("shutdown requested, stopping after the current tick")
		cancel()
	}()

	w.svc.Log.Info("judge starting", zap.String("mode", string(w.svc.Config.JudgeMode)), zap.Int("pollIntervalMs", w.svc.Config.PollIntervalMS))

	loop := judge.NewLoop(w.svc)
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

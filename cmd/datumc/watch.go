package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/evaluate"
)

var watchCmd = &cobra.Command{
	Use:   "watch <script|document>",
	Short: "Re-evaluate a file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringP("out", "o", "", "also export binary STL after each successful run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	out, _ := cmd.Flags().GetString("out")

	run := func() {
		if err := watchPass(cmd, path, out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors that save via rename
	// replace the inode and a file watch would go stale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	base := filepath.Base(path)
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", path)

	// Debounce: run only after the file has been quiet for a moment,
	// so a save that truncates then writes triggers a single pass.
	const debounce = 100 * time.Millisecond
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s changed\n", base)
			run()

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watch errors are non-fatal; keep running.
		}
	}
}

func watchPass(cmd *cobra.Command, path, out string) error {
	d, warnings, err := loadDocument(path)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)

	scene, err := evaluate.Evaluate(d, buildKernel(cmd))
	if err != nil {
		return err
	}
	printScene(cmd.OutOrStdout(), scene)

	if out != "" {
		if err := writeSceneSTL(out, scene); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eomgitae/care-console/internal/projectconfig"
	"github.com/eomgitae/care-console/internal/script"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a care project",
		Long: `Initialize a care project.

Creates a .care.yaml with the default playback settings and a
scripts/pension.yaml sample consultation to start editing from.
Existing files are left alone unless --force is given.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return initCommandE(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func initCommandE(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	cfg := projectconfig.New()
	cfgData, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", projectconfig.FileName, err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{filepath.Join(dir, projectconfig.FileName), cfgData},
		{filepath.Join(dir, cfg.Paths.Scripts, "pension.yaml"), script.DefaultBytes()},
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Initialized care project:") //nolint:errcheck
	for _, f := range files {
		written, err := writeIfMissing(f.path, f.data, force)
		if err != nil {
			return err
		}
		status := "created"
		if !written {
			status = "exists, skipped"
		}
		fmt.Fprintf(out, "  %s (%s)\n", f.path, status) //nolint:errcheck
	}
	return nil
}

func writeIfMissing(path string, data []byte, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("checking %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

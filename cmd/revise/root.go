package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pdf-revision-engine/internal/config"
	"pdf-revision-engine/internal/domain"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	workdir  string
	logLevel string
}

// newRootCmd represents the base command when called without any subcommands
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "revise",
		Short: "Check, correct and annotate PDF documents offline",
		Long: `revise runs the revision engine against a local PDF without the HTTP
server. Every command opens a throwaway session, so the input file is never
modified; results are written to the path given with --out.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.workdir, "workdir", "", "directory for session files (default is a temporary directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newExtractCmd(opts),
		newCheckCmd(opts),
		newCorrectCmd(opts),
		newAnnotateCmd(opts),
		newHistoryCmd(opts),
	)
	return rootCmd
}

// workspace is one container plus an open session on the input file.
type workspace struct {
	container *config.Container
	sessionID string
	pages     int
	cleanup   func()
}

func openWorkspace(ctx context.Context, opts *rootOptions, input string) (*workspace, error) {
	dir := opts.workdir
	cleanup := func() {}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "revise-*")
		if err != nil {
			return nil, err
		}
		dir = tmp
		cleanup = func() { os.RemoveAll(tmp) }
	}

	container, err := newContainer(opts, dir, false)
	if err != nil {
		cleanup()
		return nil, err
	}

	f, err := os.Open(input)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	res, err := container.RevisionService.Upload(ctx, filepath.Base(input), f)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &workspace{container: container, sessionID: res.SessionID, pages: res.TotalPages, cleanup: cleanup}, nil
}

// newContainer wires the engine over dir. Archiving stays off unless asked
// for, so offline runs never upload.
func newContainer(opts *rootOptions, dir string, archive bool) (*config.Container, error) {
	cfg := config.NewConfig().(*config.AppConfig)
	cfg.UploadPath = dir
	cfg.LogLevel = opts.logLevel
	if !archive {
		cfg.SupabaseURL = ""
	}
	return config.NewContainerWithConfig(cfg)
}

func (w *workspace) service() domain.RevisionService {
	return w.container.RevisionService
}

// export copies a session file reference to dst.
func (w *workspace) export(ref, dst string) error {
	src, err := w.service().ResolveFile(ref)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

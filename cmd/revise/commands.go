package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pdf-revision-engine/internal/domain"

	"github.com/spf13/cobra"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Print the text of every page, or of one page with --page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer ws.cleanup()

			first, last := 0, ws.pages-1
			if page >= 0 {
				first, last = page, page
			}
			for i := first; i <= last; i++ {
				text, err := pageText(cmd, ws, i)
				if err != nil {
					return err
				}
				if first != last {
					fmt.Fprintf(cmd.OutOrStdout(), "--- page %d ---\n", i)
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", -1, "0-based page index")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "check <file.pdf>",
		Short: "Report spelling errors and grammar suggestions for a page as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer ws.cleanup()

			view, err := ws.service().Page(cmd.Context(), ws.sessionID, page)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "0-based page index")
	return cmd
}

func newCorrectCmd(opts *rootOptions) *cobra.Command {
	var (
		page     int
		text     string
		textFile string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "correct <file.pdf>",
		Short: "Replace the text of a page and write the corrected PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if textFile != "" {
				b, err := os.ReadFile(textFile)
				if err != nil {
					return err
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("one of --text or --text-file is required")
			}

			ws, err := openWorkspace(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer ws.cleanup()

			res, err := ws.service().Correct(cmd.Context(), domain.CorrectionRequest{
				SessionID:  ws.sessionID,
				PageNumber: page,
				Text:       text,
			})
			if err != nil {
				return err
			}
			if err := ws.export(res.OutputPDFPath, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d words changed)\n", out, res.ChangedWords)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "0-based page index")
	cmd.Flags().StringVarP(&text, "text", "t", "", "edited page text")
	cmd.Flags().StringVar(&textFile, "text-file", "", "read the edited page text from a file")
	cmd.Flags().StringVarP(&out, "out", "o", "corrected.pdf", "output path")
	return cmd
}

func newAnnotateCmd(opts *rootOptions) *cobra.Command {
	var (
		page   int
		target string
		note   string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "annotate <file.pdf>",
		Short: "Highlight every occurrence of a text on a page and attach a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer ws.cleanup()

			res, err := ws.service().Comment(cmd.Context(), domain.CommentRequest{
				SessionID:  ws.sessionID,
				PageNumber: page,
				TargetText: target,
				Comment:    note,
			})
			if err != nil {
				return err
			}
			if err := ws.export(res.OutputPDFPath, out); err != nil {
				return err
			}
			matches := 0
			if res.Matches != nil {
				matches = *res.Matches
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d matches)\n", out, matches)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "0-based page index")
	cmd.Flags().StringVar(&target, "target", "", "text to highlight")
	cmd.Flags().StringVar(&note, "note", "", "comment attached to each highlight")
	cmd.Flags().StringVarP(&out, "out", "o", "commented.pdf", "output path")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("note")
	return cmd
}

func pageText(cmd *cobra.Command, ws *workspace, page int) (string, error) {
	view, err := ws.service().Page(cmd.Context(), ws.sessionID, page)
	if err != nil {
		return "", err
	}
	return view.Text, nil
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session_id>",
		Short: "List the archived revisions of a server session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "revise-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			container, err := newContainer(opts, dir, true)
			if err != nil {
				return err
			}
			if container.Index == nil {
				return errors.New("revision archive is not configured (set SUPABASE_URL and SUPABASE_SERVICE_KEY)")
			}

			revisions, err := container.Index.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, rev := range revisions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s/%s\n", rev.CreatedAt.Format(time.RFC3339), rev.Bucket, rev.ObjectPath)
			}
			return nil
		},
	}
}

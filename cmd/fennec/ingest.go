package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/parser"
	"github.com/dgallion1/fennec/internal/pipeline"
)

func newIngestCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "ingest <file|glob>...",
		Short: "Chunk, embed and store manual chapters",
		Long: `Split each input into sections by its numbered headings, pack the sections
into chunks, embed every chunk and upsert it into the vector store.

Inputs may be files or doublestar globs. Supported formats: .txt, .md, .html,
.pdf and .docx.

Examples:
  fennec ingest manual/chapter5.txt
  fennec ingest 'manual/**/*.pdf'
  fennec ingest --dry-run manual/chapter5.docx   # chunk only, no embedding`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandInputs(args)
			if err != nil {
				return err
			}
			if dryRun {
				return runChunkOnly(cmd.OutOrStdout(), a, files)
			}
			return runIngest(cmd, a, files)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "chunk inputs and report counts without embedding or storing")
	return cmd
}

// expandInputs resolves arguments to a sorted, de-duplicated file list.
// Arguments without glob metacharacters must name a readable file; anything
// else is treated as a glob.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("input %s: %w", arg, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("input %s is a directory", arg)
			}
			files = append(files, filepath.Clean(arg))
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if parser.IsSupportedExtension(m) {
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported input files match %v", args)
	}
	return files, nil
}

func runChunkOnly(out io.Writer, a *app, files []string) error {
	prepared, err := pipeline.PrepareFiles(files, pipeline.IngestConfigFrom(a.cfg))
	if err != nil {
		return err
	}
	for _, p := range prepared {
		fmt.Fprintf(out, "%s: %d sections, %d chunks\n", p.Path, p.Sections, len(p.Records))
		for _, r := range p.Records {
			fmt.Fprintf(out, "  %s  (%d chars)\n", r.ID, len([]rune(r.Text)))
		}
	}
	return nil
}

func runIngest(cmd *cobra.Command, a *app, files []string) error {
	if err := a.cfg.Validate(config.ModeIngest); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	icfg := pipeline.IngestConfigFrom(a.cfg)
	prepared, err := pipeline.PrepareFiles(files, icfg)
	if err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel)
	st, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	return storePrepared(cmd, pipeline.NewIngester(a.embedder(), st, icfg, log), prepared)
}

func storePrepared(cmd *cobra.Command, ingester *pipeline.Ingester, prepared []pipeline.Prepared) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	var total pipeline.Summary
	for _, p := range prepared {
		var bar *progressbar.ProgressBar
		progress := func(done, n int) {
			if bar == nil {
				bar = progressbar.NewOptions(n,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", filepath.Base(p.Path))),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(cmd.ErrOrStderr())
					}),
				)
			}
			bar.Set(done)
		}

		sum, err := ingester.Store(ctx, p.Sections, p.Records, progress)
		if err != nil {
			bad.Fprintf(out, "FAILED %s: %v\n", p.Path, err)
			return fmt.Errorf("ingest %s: %w (%d chunks stored before the failure)", p.Path, err, total.Upserted+sum.Upserted)
		}
		ok.Fprintf(out, "OK %s", p.Path)
		fmt.Fprintf(out, "  sections=%d chunks=%d upserted=%d\n", sum.Sections, sum.Chunks, sum.Upserted)
		total.Sections += sum.Sections
		total.Chunks += sum.Chunks
		total.Upserted += sum.Upserted
	}

	fmt.Fprintf(out, "\nIngestion complete:\n")
	fmt.Fprintf(out, "  Files:    %d\n", len(prepared))
	fmt.Fprintf(out, "  Sections: %d\n", total.Sections)
	fmt.Fprintf(out, "  Chunks:   %d\n", total.Chunks)
	fmt.Fprintf(out, "  Upserted: %d\n", total.Upserted)
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/sncloud/sncloud-go/internal/supernote"
)

// dirColor highlights directory names in table output. fatih/color
// disables itself when stdout is not a terminal.
var dirColor = color.New(color.FgBlue, color.Bold)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and directories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Download a file, optionally converted to PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}

	cmd.Flags().StringP("output", "o", ".", "output directory")
	cmd.Flags().Bool("pdf", false, "download the note converted to PDF")
	cmd.Flags().Bool("png", false, "download the note converted to PNG, one file per page")
	cmd.Flags().String("pages", "", "comma-separated page numbers for --pdf/--png")
	cmd.MarkFlagsMutuallyExclusive("pdf", "png")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}

	cmd.Flags().StringP("parent", "p", "", "parent directory path (default root)")

	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-file>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPut,
	}

	cmd.Flags().StringP("parent", "p", "", "parent directory path (default root)")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files or directories sharing one parent directory",
		Long: `Delete one or more remote items in a single batch. The delete endpoint is
directory-scoped, so all given paths must resolve into the same parent
directory; a mixed batch fails before anything is deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRm,
	}
}

// lsJSONItem is the JSON output schema for ls.
type lsJSONItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Size     int64  `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// getJSONOutput is the JSON output schema for get.
type getJSONOutput struct {
	Files []string `json:"files"`
}

// mkdirJSONOutput is the JSON output schema for mkdir.
type mkdirJSONOutput struct {
	Created string `json:"created"`
	Parent  string `json:"parent"`
}

// putJSONOutput is the JSON output schema for put.
type putJSONOutput struct {
	Uploaded string `json:"uploaded"`
	Parent   string `json:"parent"`
}

// rmJSONOutput is the JSON output schema for rm.
type rmJSONOutput struct {
	Deleted []string `json:"deleted"`
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, err := newAPIClient(logger)
	if err != nil {
		return err
	}

	remotePath := "/"
	ref := supernote.Root()

	if len(args) > 0 && args[0] != "" {
		remotePath = args[0]
		ref = supernote.ByPath(remotePath)
	}

	logger.Debug("ls", "path", remotePath)

	entries, err := client.List(ctx, ref)
	if err != nil {
		return fmt.Errorf("listing %q: %w", remotePath, err)
	}

	if flagJSON {
		return printEntriesJSON(entries)
	}

	printEntriesTable(entries)

	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	asPDF, err := cmd.Flags().GetBool("pdf")
	if err != nil {
		return err
	}

	asPNG, err := cmd.Flags().GetBool("png")
	if err != nil {
		return err
	}

	pagesSpec, err := cmd.Flags().GetString("pages")
	if err != nil {
		return err
	}

	pages, err := parsePages(pagesSpec)
	if err != nil {
		return err
	}

	if len(pages) > 0 && !asPDF && !asPNG {
		return fmt.Errorf("--pages requires --pdf or --png")
	}

	outputDir, err = homedir.Expand(outputDir)
	if err != nil {
		return fmt.Errorf("expanding output directory: %w", err)
	}

	client, err := newAPIClient(logger)
	if err != nil {
		return err
	}

	logger.Debug("get", "path", remotePath, "output", outputDir, "pdf", asPDF, "png", asPNG)

	ref := supernote.ByPath(remotePath)

	var paths []string

	switch {
	case asPDF:
		local, err := client.DownloadPDF(ctx, ref, outputDir, pages)
		if err != nil {
			return fmt.Errorf("downloading %q: %w", remotePath, err)
		}

		paths = []string{local}
	case asPNG:
		locals, err := client.DownloadPNG(ctx, ref, outputDir, pages)
		if err != nil {
			return fmt.Errorf("downloading %q: %w", remotePath, err)
		}

		paths = locals
	default:
		local, err := client.Download(ctx, ref, outputDir)
		if err != nil {
			return fmt.Errorf("downloading %q: %w", remotePath, err)
		}

		paths = []string{local}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(getJSONOutput{Files: paths})
	}

	for _, p := range paths {
		statusf("Downloaded %s\n", p)
	}

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	parentPath, err := cmd.Flags().GetString("parent")
	if err != nil {
		return err
	}

	client, err := newAPIClient(logger)
	if err != nil {
		return err
	}

	parent := supernote.Root()
	if parentPath != "" {
		parent = supernote.ByPath(parentPath)
	}

	logger.Debug("mkdir", "name", name, "parent", parentPath)

	if err := client.Mkdir(ctx, name, parent); err != nil {
		return fmt.Errorf("creating %q: %w", name, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(mkdirJSONOutput{Created: name, Parent: displayParent(parentPath)})
	}

	statusf("Created %s\n", name)

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	localPath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	parentPath, err := cmd.Flags().GetString("parent")
	if err != nil {
		return err
	}

	localPath, err = homedir.Expand(localPath)
	if err != nil {
		return fmt.Errorf("expanding local path: %w", err)
	}

	client, err := newAPIClient(logger)
	if err != nil {
		return err
	}

	parent := supernote.Root()
	if parentPath != "" {
		parent = supernote.ByPath(parentPath)
	}

	logger.Debug("put", "file", localPath, "parent", parentPath)

	if err := client.Upload(ctx, localPath, parent); err != nil {
		return fmt.Errorf("uploading %q: %w", localPath, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(putJSONOutput{Uploaded: localPath, Parent: displayParent(parentPath)})
	}

	statusf("Uploaded %s\n", localPath)

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, err := newAPIClient(logger)
	if err != nil {
		return err
	}

	logger.Debug("rm", "paths", strings.Join(args, " "))

	refs := make([]supernote.ItemRef, 0, len(args))
	for _, p := range args {
		refs = append(refs, supernote.ByPath(p))
	}

	if err := client.Delete(ctx, refs...); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rmJSONOutput{Deleted: args})
	}

	for _, p := range args {
		statusf("Deleted %s\n", p)
	}

	return nil
}

// displayParent renders an empty parent flag as the root path.
func displayParent(parentPath string) string {
	if parentPath == "" {
		return "/"
	}

	return parentPath
}

// parsePages parses a comma-separated page list like "1,3,4". An empty
// spec means all pages.
func parsePages(spec string) ([]int, error) {
	if spec == "" {
		return nil, nil
	}

	parts := strings.Split(spec, ",")
	pages := make([]int, 0, len(parts))

	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", strings.TrimSpace(part))
		}

		if n < 1 {
			return nil, fmt.Errorf("invalid page number %d", n)
		}

		pages = append(pages, n)
	}

	return pages, nil
}

func printEntriesJSON(entries []supernote.Entry) error {
	out := make([]lsJSONItem, 0, len(entries))
	for _, e := range entries {
		item := lsJSONItem{
			ID:   e.ID,
			Name: e.FileName,
			Kind: e.Kind.String(),
			Size: e.Size,
		}

		if !e.UpdateTime.IsZero() {
			item.Modified = e.UpdateTime.UTC().Format(time.RFC3339)
		}

		out = append(out, item)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// printEntriesTable renders entries as an aligned table, directories
// first. The name column comes last so color escapes cannot skew the
// padding; directories get a trailing slash and color on terminals.
func printEntriesTable(entries []supernote.Entry) {
	sorted := make([]supernote.Entry, len(entries))
	copy(sorted, entries)

	// Sort: directories first, then alphabetical.
	sort.SliceStable(sorted, func(i, j int) bool {
		di := sorted[i].Kind == supernote.KindDirectory
		dj := sorted[j].Kind == supernote.KindDirectory

		if di != dj {
			return di
		}

		return sorted[i].FileName < sorted[j].FileName
	})

	headers := []string{"SIZE", "MODIFIED", "NAME"}
	rows := make([][]string, 0, len(sorted))

	for _, e := range sorted {
		size := "-"
		if e.Kind == supernote.KindFile {
			size = formatSize(e.Size)
		}

		modified := "-"
		if !e.UpdateTime.IsZero() {
			modified = formatTime(e.UpdateTime)
		}

		name := e.FileName
		if e.Kind == supernote.KindDirectory {
			name = dirColor.Sprint(e.FileName + "/")
		}

		rows = append(rows, []string{size, modified, name})
	}

	printTable(os.Stdout, headers, rows)
}

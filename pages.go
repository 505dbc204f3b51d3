package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/edtools/pscpm-go/internal/cpm"
	"github.com/edtools/pscpm-go/internal/pspath"
	"github.com/edtools/pscpm-go/internal/templates"
)

// errVerifyMismatch signals that a publish succeeded but the re-read content
// differed. main() maps it to a non-zero exit without the generic error
// banner, since the warning has already been printed.
var errVerifyMismatch = errors.New("verification mismatch")

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the remote customization tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().IntP("depth", "d", 1, "listing depth (1 = immediate children)")

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a page's effective content",
		Long: `Download the effective content of a remote page: the active customization
if one exists, otherwise the built-in default. Without a local path the file
is written to its mirrored location under the workspace root.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> [remote-path]",
		Short: "Publish a local file as a page customization",
		Long: `Publish a local file to the server. Without a remote path the file's
location under the workspace root determines the remote target. The published
content is re-read and compared after a short delay; a mismatch exits
non-zero.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPut,
	}

	cmd.Flags().Bool("no-verify", false, "skip the post-publish verification read")

	return cmd
}

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <remote-path>",
		Short: "Scaffold a new page locally from a starter template",
		Args:  cobra.ExactArgs(1),
		RunE:  runNew,
	}

	cmd.Flags().StringP("template", "t", "admin-general", "starter template (see 'pscpm templates')")

	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available starter templates",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rows := make([][]string, 0)

			for _, key := range templates.Names() {
				tpl, err := templates.Lookup(key)
				if err != nil {
					return err
				}

				rows = append(rows, []string{key, tpl.Name, tpl.Extension})
			}

			printTable(os.Stdout, []string{"KEY", "NAME", "EXT"}, rows)

			return nil
		},
	}
}

// lsJSONItem is the JSON output schema for a single entry in ls output.
type lsJSONItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsFolder bool   `json:"is_folder"`
}

func runLs(cmd *cobra.Command, args []string) error {
	remotePath := "/"
	if len(args) > 0 {
		remotePath = args[0]
	}

	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	a.logger.Debug("ls", "path", remotePath, "depth", depth)

	node, err := a.client.ListFolder(cmd.Context(), remotePath, depth)
	if err != nil {
		return fmt.Errorf("listing %q: %w", remotePath, err)
	}

	entries := flattenTree(node, nil)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(entries)
	}

	rows := make([][]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name
		if entry.IsFolder {
			name = colorFolder(name + "/")
		}

		rows = append(rows, []string{name, entry.Path})
	}

	printTable(os.Stdout, []string{"NAME", "PATH"}, rows)

	return nil
}

// flattenTree collects a listed tree's entries depth-first, excluding the
// root node itself.
func flattenTree(node *cpm.TreeNode, acc []lsJSONItem) []lsJSONItem {
	for _, child := range node.Children {
		acc = append(acc, lsJSONItem{
			Name:     child.Name,
			Path:     child.Path,
			IsFolder: child.Kind == cpm.KindFolder,
		})
		acc = flattenTree(child, acc)
	}

	return acc
}

func runGet(cmd *cobra.Command, args []string) error {
	remotePath := pspath.Normalize(args[0])

	a, err := newApp()
	if err != nil {
		return err
	}

	localPath := pspath.ToLocal(remotePath, a.localRoot())
	if len(args) > 1 {
		localPath = args[1]
	}

	a.logger.Debug("get", "remote_path", remotePath, "local_path", localPath)

	text, err := a.client.ReadContent(cmd.Context(), remotePath)
	if err != nil {
		return fmt.Errorf("reading %q: %w", remotePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", filepath.Dir(localPath), err)
	}

	if err := os.WriteFile(localPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", localPath, err)
	}

	statusf("Downloaded %s -> %s (%d bytes)\n", remotePath, localPath, len(text))

	return nil
}

// putJSONOutput is the JSON output schema for the put command.
type putJSONOutput struct {
	Published string `json:"published"`
	Created   bool   `json:"created"`
	Verified  *bool  `json:"verified,omitempty"`
}

func runPut(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}

	var remotePath string
	if len(args) > 1 {
		remotePath = pspath.Normalize(args[1])
	} else {
		remotePath, err = pspath.ToRemote(localPath, a.localRoot())
		if err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %q: %w", localPath, err)
	}

	text := string(raw)
	ctx := cmd.Context()

	a.logger.Debug("put", "local_path", localPath, "remote_path", remotePath, "bytes", len(text))

	ack, err := a.client.WriteContent(ctx, remotePath, text)
	if err != nil {
		return fmt.Errorf("publishing %q: %w", remotePath, err)
	}

	if ack.Created {
		statusf("Created %s\n", remotePath)
	}

	noVerify, err := cmd.Flags().GetBool("no-verify")
	if err != nil {
		return err
	}

	out := putJSONOutput{Published: remotePath, Created: ack.Created}

	if !noVerify {
		res, err := a.client.VerifyWrite(ctx, remotePath, text)
		if err != nil {
			return fmt.Errorf("verifying %q: %w", remotePath, err)
		}

		out.Verified = &res.Matches

		if !res.Matches {
			statusf("Warning: %s differs after publish (first difference at byte %d)\n",
				remotePath, res.FirstDiff)

			if flagJSON {
				printJSON(out)
			}

			return errVerifyMismatch
		}
	}

	statusf("Published %s (%d bytes)\n", remotePath, len(text))

	if flagJSON {
		return printJSON(out)
	}

	return nil
}

func runNew(cmd *cobra.Command, args []string) error {
	remotePath := pspath.Normalize(args[0])

	key, err := cmd.Flags().GetString("template")
	if err != nil {
		return err
	}

	tpl, err := templates.Lookup(key)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	localPath := pspath.ToLocal(remotePath, a.localRoot())
	if _, err := os.Stat(localPath); err == nil {
		return fmt.Errorf("%q already exists — edit it and publish with 'pscpm put'", localPath)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", filepath.Dir(localPath), err)
	}

	if err := os.WriteFile(localPath, []byte(tpl.Content), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", localPath, err)
	}

	statusf("Created %s from the %s template\n", localPath, tpl.Name)
	statusf("Publish it with: pscpm put %s\n", localPath)

	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

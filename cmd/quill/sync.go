package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/content/frontmatter"
	"quill/internal/content/imageref"
	"quill/internal/resources"
	jsonx "quill/internal/shared/json"
)

type syncOptions struct {
	markdown string
	cover    string
	gallery  []string
	deletes  []string
	asJSON   bool
}

func (c *cli) newSyncCommand() *cobra.Command {
	opts := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync <slug>",
		Short: "Upload, replace or delete the resources of a post",
		Example: `  quill sync hello-world --markdown post.md --gallery cat.png --gallery dog.png
  quill sync hello-world --cover cover.jpg --delete hello-world-gallery-2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0])
			if err != nil {
				return err
			}
			warnMissingImages(cmd.ErrOrStderr(), req)

			container, cleanup, err := c.container(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.Synchronizer.Synchronize(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.asJSON {
				if err := writeResultJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result)
			}
			if result.Partial() {
				return fmt.Errorf("%d resource operations failed", len(result.Errors))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.markdown, "markdown", "", "markdown file to publish as the post content")
	flags.StringVar(&opts.cover, "cover", "", "cover image file")
	flags.StringArrayVar(&opts.gallery, "gallery", nil, "gallery image file, repeatable")
	flags.StringArrayVar(&opts.deletes, "delete", nil, "gallery key or role name to delete, repeatable")
	flags.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (o *syncOptions) request(slug string) (resources.Request, error) {
	req := resources.Request{Slug: slug, DeleteGalleryKeys: o.deletes}
	if o.markdown != "" {
		input, err := readInputFile(o.markdown)
		if err != nil {
			return req, err
		}
		input.MimeType = "text/markdown"
		req.Markdown = &input
	}
	if o.cover != "" {
		input, err := readInputFile(o.cover)
		if err != nil {
			return req, err
		}
		req.Cover = &input
	}
	for _, path := range o.gallery {
		input, err := readInputFile(path)
		if err != nil {
			return req, err
		}
		req.Gallery = append(req.Gallery, input)
	}
	return req, nil
}

func readInputFile(path string) (resources.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return resources.Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	return resources.Input{Filename: filepath.Base(path), Data: data}, nil
}

// warnMissingImages lists images the markdown references that were not
// supplied, so they can be added before the upload leaves them unresolved.
func warnMissingImages(w io.Writer, req resources.Request) {
	if req.Markdown == nil {
		return
	}
	_, body := frontmatter.Split(string(req.Markdown.Data))
	supplied := make(map[string]string, len(req.Gallery))
	for _, input := range req.Gallery {
		supplied[input.Filename] = input.Filename
	}
	for _, ref := range imageref.LocalImages(body) {
		if _, ok := imageref.Lookup(supplied, ref); !ok {
			printWarning(w, "%s references %s but no gallery file with that name was given", req.Markdown.Filename, ref)
		}
	}
}

func printResult(out, errOut io.Writer, result resources.Result) {
	if result.Content != nil {
		if title := result.Content.Title(); title != "" {
			printField(out, "title", title)
		}
	}
	printField(out, "content", result.Bundle.ContentURL)
	printField(out, "cover", result.Bundle.CoverImageURL)
	fmt.Fprintf(out, "%s %d\n", bold("gallery:"), len(result.Bundle.GalleryURLs))
	for _, url := range result.Bundle.GalleryURLs {
		fmt.Fprintf(out, "  %s\n", cyan(url))
	}

	if result.Warning != nil {
		printWarning(errOut, "%v", result.Warning)
	}
	for _, collision := range result.Collisions {
		printWarning(errOut, "%v", collision)
	}
	if result.Unmatched > 0 {
		printWarning(errOut, "%d image references left unresolved", result.Unmatched)
	}
	for _, slotErr := range result.Errors {
		printFailure(errOut, "%s (%v)", slotErr.Message(), slotErr.Err)
	}
	if !result.Partial() {
		fmt.Fprintln(out, green("synchronized"))
	}
}

type syncJSON struct {
	Bundle    resources.Bundle `json:"bundle"`
	Title     string           `json:"title,omitempty"`
	Unmatched int              `json:"unmatched_references"`
	Errors    []string         `json:"errors,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

func writeResultJSON(w io.Writer, result resources.Result) error {
	payload := syncJSON{Bundle: result.Bundle, Unmatched: result.Unmatched}
	if result.Content != nil {
		payload.Title = result.Content.Title()
	}
	for _, slotErr := range result.Errors {
		payload.Errors = append(payload.Errors, slotErr.Message())
	}
	if result.Warning != nil {
		payload.Warnings = append(payload.Warnings, result.Warning.Error())
	}
	for _, collision := range result.Collisions {
		payload.Warnings = append(payload.Warnings, collision.Error())
	}
	enc := jsonx.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func (c *cli) newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <slug>",
		Short: "Print the published markdown of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := c.container(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := container.Reader.FetchPublishedContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, content)
			if !strings.HasSuffix(content, "\n") {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func (c *cli) newPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <slug>",
		Short: "Delete every stored resource of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := c.container(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := container.Synchronizer.Purge(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d resources\n", deleted)
			return err
		},
	}
}

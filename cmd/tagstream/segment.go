package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	tagstream "github.com/riverfjs/tagstream-go"
	"github.com/riverfjs/tagstream-go/internal/segment"
	"github.com/riverfjs/tagstream-go/internal/transport"
)

type segmentOut struct {
	segment.View
	HTML string `json:"html,omitempty"`
}

type fileResult struct {
	File      string       `json:"file"`
	MessageID string       `json:"message_id"`
	Segments  []segmentOut `json:"segments"`
}

func SegmentHandler(cmd *cobra.Command, args []string) error {
	reg, err := registryFromFlags(cmd)
	if err != nil {
		return err
	}
	chunk, _ := cmd.Flags().GetInt("chunk")
	delay, _ := cmd.Flags().GetDuration("delay")
	withHTML, _ := cmd.Flags().GetBool("html")
	verify, _ := cmd.Flags().GetBool("verify")

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = "json"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "table"
		}
	}
	switch format {
	case "table", "json", "ndjson":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	results := make([]fileResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, name := range args {
		i, name := i, name
		g.Go(func() error {
			var r io.Reader = os.Stdin
			if name != "-" {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			if delay > 0 {
				r = &transport.SlowReader{R: r, Delay: delay, MaxChunk: chunk}
			}

			st, _, err := tagstream.Process(ctx, r, tagstream.WithRegistry(reg), tagstream.WithChunkSize(chunk))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if verify {
				if err := st.Verify(); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}

			res := fileResult{File: name, MessageID: st.ID()}
			for _, seg := range st.Segments() {
				out := segmentOut{View: seg.View()}
				if withHTML && seg.Kind() == segment.Text {
					if out.HTML, err = st.Render(seg); err != nil {
						return fmt.Errorf("%s: segment %d: %w", name, seg.ID(), err)
					}
				}
				res.Segments = append(res.Segments, out)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "ndjson":
		enc := json.NewEncoder(w)
		for _, res := range results {
			for _, seg := range res.Segments {
				line := struct {
					File      string `json:"file"`
					MessageID string `json:"message_id"`
					segmentOut
				}{res.File, res.MessageID, seg}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		printTable(w, results)
		return nil
	}
}

func printTable(w io.Writer, results []fileResult) {
	width := 40
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = max(20, cols-60)
		}
	}

	var data [][]string
	for _, res := range results {
		for _, seg := range res.Segments {
			preview := strings.ReplaceAll(seg.Raw, "\n", "⏎")
			data = append(data, []string{
				res.File,
				strconv.FormatUint(seg.ID, 10),
				seg.Kind.String(),
				seg.TagName,
				seg.Status.String(),
				strconv.Itoa(len(seg.Raw)),
				truncate.StringWithTail(preview, uint(width), "…"),
			})
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"FILE", "ID", "KIND", "TAG", "STATUS", "BYTES", "PREVIEW"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"

	tagstream "github.com/riverfjs/tagstream-go"
	"github.com/riverfjs/tagstream-go/internal/envconfig"
	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/logutil"
	"github.com/riverfjs/tagstream-go/internal/server"
	"github.com/riverfjs/tagstream-go/internal/version"
)

func main() {
	cobra.CheckErr(NewCLI().ExecuteContext(context.Background()))
}

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "tagstream",
		Short:         "Split streamed LLM replies into Markdown and component segments",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
			tagstream.SetLogger(slog.Default())
		},
		Run: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Printf("tagstream version is %s\n", version.Version)
				return
			}
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	segmentCmd := &cobra.Command{
		Use:   "segment [FILE...]",
		Short: "Segment replies read from files or stdin",
		RunE:  SegmentHandler,
	}
	segmentCmd.Flags().Int("chunk", 0, "Read size in bytes (0 for the default)")
	segmentCmd.Flags().Duration("delay", 0, "Delay between chunks, simulates token streaming")
	segmentCmd.Flags().String("tags", "", "Comma separated tag names (default $TAGSTREAM_TAGS or the built-in set)")
	segmentCmd.Flags().String("format", "", "Output format: table, json or ndjson (default table on a terminal, json otherwise)")
	segmentCmd.Flags().Bool("html", false, "Include rendered HTML for text segments")
	segmentCmd.Flags().Bool("verify", false, "Check the result against a full reparse")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the HTTP server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List registered tags",
		Args:  cobra.ExactArgs(0),
		RunE:  TagsHandler,
	}
	tagsCmd.Flags().String("tags", "", "Comma separated tag names (default $TAGSTREAM_TAGS or the built-in set)")

	rootCmd.AddCommand(segmentCmd, serveCmd, tagsCmd)
	return rootCmd
}

func RunServer(cmd *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host())
	if err != nil {
		return err
	}
	return server.Serve(ln)
}

// registryFromFlags resolves the grammar: --tags, then TAGSTREAM_TAGS, then
// the defaults.
func registryFromFlags(cmd *cobra.Command) (*grammar.Registry, error) {
	list, _ := cmd.Flags().GetString("tags")
	if list == "" {
		list = envconfig.Tags()
	}
	if list == "" {
		return grammar.Default(), nil
	}
	return grammar.Parse(list)
}

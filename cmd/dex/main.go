// Command dex queries the creature index from the terminal, using the same
// configuration and data as the MCP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/logging"
	"github.com/krakend/dex-mcp-server/tools"
)

var (
	version = "dev"

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	output     string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "dex",
		Short: "Query creatures by category and attribute bucket",
		Long: titleStyle.Render("dex") + `

Answer questions like "which fire creatures have high attack" from the
terminal. Queries take the form:

  <find|plot> <category> <low|medium|high> <attribute>

` + dimStyle.Render("Use 'dex [command] --help' for more information."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./dex.yaml or $HOME/.dex-mcp/dex.yaml)")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log index building to stderr")

	rootCmd.AddCommand(
		newQueryCmd(opts),
		newBucketsCmd(opts),
		newStatsCmd(opts),
		newSearchCmd(opts),
	)
	return rootCmd
}

// openDex loads configuration and builds the index.
func openDex(opts *options) (*tools.Dex, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if opts.verbose {
		level = cfg.Log.Level
	}
	dex := tools.New(cfg, logging.Stderr(level, "dex"))
	if err := dex.Load(); err != nil {
		return nil, err
	}
	return dex, nil
}

func newQueryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "query <find|plot> <category> <degree> <attribute>",
		Short:   "Run a find or plot query",
		Example: "  dex query find fire high attack\n  dex query plot water medium speed",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			dex, err := openDex(opts)
			if err != nil {
				return err
			}
			defer dex.Close()

			out, err := dex.Find(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
				writeQuery(w, out)
			})
		},
	}
}

func newBucketsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List categories, attributes and bucket ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dex, err := openDex(opts)
			if err != nil {
				return err
			}
			defer dex.Close()

			out, err := dex.Catalogue()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
				writeBuckets(w, out)
			})
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <name>",
		Short: "Show a creature's stats",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dex, err := openDex(opts)
			if err != nil {
				return err
			}
			defer dex.Close()

			out, err := dex.Creature(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, out.Creature, func(w io.Writer) {
				fmt.Fprint(w, out.Info)
			})
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search by name or category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dex, err := openDex(opts)
			if err != nil {
				return err
			}
			defer dex.Close()

			out, err := dex.Search(strings.Join(args, " "), maxResults)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
				for _, h := range out.Hits {
					fmt.Fprintf(w, "#%-4d %-12s %s %s\n", h.Number, h.Name,
						strings.Join(h.Types, "/"), dimStyle.Render(fmt.Sprintf("%.3f", h.Score)))
				}
			})
		},
	}
	cmd.Flags().IntVarP(&maxResults, "max", "n", 10, "maximum number of results")
	return cmd
}

// render writes v as JSON or YAML, or calls text for the text format.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "text", "":
		text(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		out, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// toYAML goes through JSON so field names and order match the json tags, then
// drops the flow style the JSON parse leaves on every node.
func toYAML(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to convert output: %w", err)
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func writeQuery(w io.Writer, out tools.QueryCreaturesOutput) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d match(es)", out.Query.String(), out.Count)))
	fmt.Fprintln(w, dimStyle.Render(describeRange(out.Range)))
	for _, name := range out.Names {
		fmt.Fprintf(w, "  %s\n", name)
	}

	if out.Distribution == nil {
		return
	}
	d := out.Distribution
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s of %s creatures", d.Attribute, d.Category)))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("n=%d min=%g max=%g mean=%.1f", d.Summary.Count, d.Summary.Min, d.Summary.Max, d.Summary.Mean)))
	for _, b := range d.Histogram {
		fmt.Fprintf(w, "%7.1f–%-7.1f %s %d\n", b.Lower, b.Upper, barStyle.Render(strings.Repeat("█", b.Count)), b.Count)
	}
}

func writeBuckets(w io.Writer, out tools.ListCategoriesOutput) {
	fmt.Fprintln(w, titleStyle.Render("Categories"))
	fmt.Fprintf(w, "  %s\n\n", strings.Join(out.Categories, ", "))
	fmt.Fprintln(w, titleStyle.Render("Buckets"))
	for _, b := range out.Buckets {
		fmt.Fprintf(w, "  %-18s %s\n", b.Bucket, describeRange(b))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d creatures from %s, %d leaves, max height %d",
		out.Index.Creatures, out.Index.Source, out.Index.Leaves, out.Index.MaxHeight)))
}

func describeRange(b tools.BucketInfo) string {
	lower, upper := "[", "]"
	if b.LowerOpen {
		lower = "(open "
	}
	if b.UpperOpen {
		upper = " open)"
	}
	return fmt.Sprintf("%s%g, %g%s", lower, b.Lower, b.Upper, upper)
}

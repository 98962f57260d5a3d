// Command dirpack archives the current directory according to a
// dirpack.toml configuration.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/dirpack"
)

var rootCmd = &cobra.Command{
	Use:   "dirpack",
	Short: "configuration-driven directory archiver",
	Long:  "dirpack archives a directory into plain, tar.gz, zip or lz4 containers,\nexcluding paths that match gitignore-style rules from dirpack.toml.",
}

func main() {
	rootCmd.AddCommand(initCmd(), formatsCmd(), compressCmd(), extractCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "write a default " + dirpack.DefaultConfigName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := dirpack.WriteDefaultConfig(dirpack.DefaultConfigName); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", dirpack.DefaultConfigName)
			return nil
		},
	}
}

func formatsCmd() *cobra.Command {
	descriptions := map[dirpack.Format]string{
		dirpack.FormatPlain: "sequential container, no compression",
		dirpack.FormatTarGz: "tar stream through gzip",
		dirpack.FormatZip:   "zip with per-entry deflate",
		dirpack.FormatLz4:   "sequential container with lz4 frames",
	}
	return &cobra.Command{
		Use:   "formats",
		Short: "list supported archive formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, f := range dirpack.Formats() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %-10s %s\n", f, f.Ext(), descriptions[f])
			}
		},
	}
}

func compressCmd() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "compress [dir]",
		Short: "archive a directory using the configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, err := dirpack.LoadConfig(configPath)
			if err != nil {
				return err
			}

			opts := []dirpack.CreateOption{
				dirpack.CreateWithProgress(func(ev dirpack.ProgressEvent) {
					fmt.Fprintf(cmd.OutOrStdout(), "\r%d entries, %d bytes", ev.EntriesWritten, ev.BytesWritten)
				}),
			}
			if verbose {
				opts = append(opts, dirpack.CreateWithLogger(
					slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))))
			}

			out, err := dirpack.Create(cmd.Context(), cfg, dir, opts...)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nwrote %s", out)
			if info, statErr := os.Stat(out); statErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", humanSize(info.Size()))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", dirpack.DefaultConfigName, "configuration file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log archiving details")
	return cmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> [dest]",
		Short: "unpack an archive",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}

			format, err := dirpack.DetectFormat(args[0])
			if err != nil {
				return err
			}
			if err := dirpack.Extract(format, args[0], dest); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "extracted to", dest)
			return nil
		},
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

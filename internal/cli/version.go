package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pactverify/internal/build"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for pactverify",
		Example: `  # Show version info
  pactverify version

  # Plain output (for scripts)
  pactverify version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if plain, _ := cmd.Flags().GetBool("plain"); plain {
				fmt.Fprintf(out, "pactverify %s\n", build.Version)
				fmt.Fprintf(out, "commit: %s\n", build.Commit)
				fmt.Fprintf(out, "built: %s\n", build.BuildDate)
				fmt.Fprintf(out, "go: %s\n", runtime.Version())
				fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				return
			}

			cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
			dim := color.New(color.Faint).SprintFunc()
			if build.IsDevBuild() {
				fmt.Fprintf(out, "%s %s %s\n", cyan("pactverify"), build.Version, dim("(development build)"))
			} else {
				fmt.Fprintf(out, "%s %s\n", cyan("pactverify"), build.Version)
			}
			fmt.Fprintf(out, "  %s %s\n", dim("commit:  "), build.Commit)
			fmt.Fprintf(out, "  %s %s\n", dim("built:   "), build.BuildDate)
			fmt.Fprintf(out, "  %s %s (%s/%s)\n", dim("go:      "), runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "  %s %s\n", dim("source:  "), build.SourceURL)
		},
	}
	cmd.GroupID = GroupGettingStarted
	cmd.Flags().Bool("plain", false, "Plain output without formatting")
	return cmd
}

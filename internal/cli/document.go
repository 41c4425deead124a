package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var documentWriteFlag bool

// documentCmd represents the document command
var documentCmd = &cobra.Command{
	Use:   "document <file>",
	Short: "Print the documentation prompt for one file",
	Long: `Document analyzes a single source file and prints its documentation
prompt scaffold. With --write the prompt is also saved under the prompts
directory, without touching READMEs or PROGRESS.md.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocument,
}

func init() {
	rootCmd.AddCommand(documentCmd)
	documentCmd.Flags().BoolVarP(&documentWriteFlag, "write", "w", false, "Also write the prompt file")
}

func runDocument(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	return executeDocument(cmd.OutOrStdout(), proj, args[0], documentWriteFlag)
}

func executeDocument(out io.Writer, proj *project, arg string, write bool) error {
	path, err := proj.resolveFile(arg)
	if err != nil {
		return err
	}

	prompt, res, err := proj.newProcessor().Document(path)
	if err != nil {
		return err
	}

	if !write {
		fmt.Fprint(out, prompt)
		return nil
	}

	_, content, err := proj.analyzer.AnalyzeFile(path)
	if err != nil {
		return err
	}
	promptPath, err := proj.writer.WritePrompt(res, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote %s (%s, %d lines)\n", relOrAbs(proj.root, promptPath), res.Language.Label, res.LineCount)
	return nil
}

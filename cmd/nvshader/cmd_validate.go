package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdValidate = &cobra.Command{
	Use:   "validate",
	Short: "Check cache artifacts for corruption",
	Long: `
The "validate" command re-parses every typed cache file and confirms that
directory caches still exist. Nothing is modified.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	cmdRoot.AddCommand(cmdValidate)
}

func runValidate() error {
	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	res := mgr.Validate()
	fmt.Printf("checked %d entries, %d invalid\n", res.Checked, res.Invalid)
	return nil
}

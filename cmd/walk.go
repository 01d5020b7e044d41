package cmd

import (
	"github.com/huangsam/srcmeasure/core"
	"github.com/spf13/cobra"
)

// walkCmd lists the components reachable from a root definition without measuring them.
var walkCmd = &cobra.Command{
	Use:   "walk <definition>",
	Short: "List the components a run would process, in order.",
	Long: `Resolve a root definition and print every reachable component in the
order a measurement run would process them, without cloning or measuring anything.

Each row shows the component's definition id, kind, name and, for chunks,
the repository and commit that would be measured. Rows sharing a work item
key would be measured only once.

Examples:
  # Preview a run
  srcmeasure walk systems/base-system-x86_64.morph --definitions ~/definitions

  # Leaves first, without the root
  srcmeasure walk systems/devel.morph --order dependency --include-root no

  # Save the plan as JSON
  srcmeasure walk clusters/release.morph --output json --output-file plan.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteWalk(rootCtx, cfg, storeManager)
	},
}

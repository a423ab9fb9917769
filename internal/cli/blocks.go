package cli

import (
	"github.com/spf13/cobra"
)

// NewBlocksCmd создаёт команду для просмотра доступных типов блоков.
func NewBlocksCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List available block types",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			blocks, err := client.ListBlocks()
			if err != nil {
				return err
			}

			rows := make([][]string, len(blocks.Types))
			for i, t := range blocks.Types {
				rows[i] = []string{t}
			}

			out.Print([]string{"TYPE"}, rows, blocks)
			return nil
		},
	}
}

package cli

import (
	"github.com/urfave/cli/v2"
)

// ConfigShowAction prints every peripheral of the board description.
func ConfigShowAction(c *cli.Context) error {
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	if err := board.Validate("board"); err != nil {
		return err
	}
	if board.ConfigFilePath != "" {
		printf(c.App.Writer, "From %s", board.ConfigFilePath)
	}
	printf(c.App.Writer, "%s", board.String())
	return nil
}

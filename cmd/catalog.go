package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the active tag-alias catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := activeCatalog()
		if err != nil {
			return err
		}
		data, err := cat.YAML()
		if err != nil {
			return eris.Wrap(err, "catalog")
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

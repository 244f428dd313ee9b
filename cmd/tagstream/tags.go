package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func TagsHandler(cmd *cobra.Command, _ []string) error {
	reg, err := registryFromFlags(cmd)
	if err != nil {
		return err
	}

	var data [][]string
	for _, name := range reg.Names() {
		tag, _ := reg.Lookup(name)
		data = append(data, []string{tag.Name, tag.Open, tag.Close})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "OPEN", "CLOSE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

package main

import (
	"careerchat/internal/assessment"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the assessment sections and their answer types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog := assessment.DefaultCatalog()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tKEY\tTITLE\tREQUIRED\tTYPES")
		for i, s := range catalog.Sections() {
			types := make([]string, len(s.TypeSequence))
			for j, t := range s.TypeSequence {
				types[j] = string(t)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, s.Key, s.Title, s.RequiredCount, strings.Join(types, ", "))
		}
		fmt.Fprintf(w, "\t\ttotal\t%d\t\n", catalog.TotalQuestions())
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

package cmd

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dexgraph/internal/core"
	"dexgraph/internal/dump"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarise a load as tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err := inputPath(args[0])
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")

		a, err := analyzeFor(cmd, cfg, path)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n%s\n", a.Path, a.Digest)
		fmt.Fprintf(out, "\n%s", loadTable(a))
		fmt.Fprintf(out, "\n%s", opcodeTable(a.Scope()))
		if top > 0 {
			fmt.Fprintf(out, "\n%s", largestMethods(a.Scope(), top))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("top", 10, "List the largest methods (0 disables)")
	rootCmd.AddCommand(statsCmd)
}

func loadTable(a *analysis) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Item", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	st := a.Stats
	table.Append([]string{"classes", fmt.Sprint(st.Classes)})
	table.Append([]string{"methods", fmt.Sprint(st.Methods)})
	table.Append([]string{"translated", fmt.Sprint(st.Translated)})
	table.Append([]string{"failed", fmt.Sprint(st.Failed)})
	table.Append([]string{"calls resolved", fmt.Sprint(st.Calls.Resolved)})
	table.Append([]string{"calls via synthetic", fmt.Sprint(st.Calls.Synthetic)})
	table.Append([]string{"calls unresolved", fmt.Sprint(st.Calls.Unresolved)})
	table.Append([]string{"framework classes", fmt.Sprint(a.Framework)})
	table.Render()
	return buf.String()
}

// opcodeTable counts instructions by opcode across the dumped classes.
func opcodeTable(scope *core.Scope) string {
	counts := map[core.Op]int{}
	total := 0
	for _, c := range dump.Classes(scope, dump.Options{}) {
		for _, m := range c.AllMethods() {
			for _, in := range m.Instructions() {
				counts[in.Op]++
				total++
			}
		}
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Opcode", "Instructions"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, op := range core.Ops() {
		if n := counts[op]; n > 0 {
			table.Append([]string{op.String(), fmt.Sprint(n)})
		}
	}
	table.SetFooter([]string{"Total", fmt.Sprint(total)})
	table.Render()
	return buf.String()
}

func largestMethods(scope *core.Scope, n int) string {
	var ms []*core.MethodNode
	for _, c := range dump.Classes(scope, dump.Options{}) {
		ms = append(ms, c.AllMethods()...)
	}
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := len(ms[i].Instructions()), len(ms[j].Instructions())
		if a != b {
			return a > b
		}
		return ms[i].String() < ms[j].String()
	})
	if len(ms) > n {
		ms = ms[:n]
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Method", "Instructions", "Try blocks"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, m := range ms {
		table.Append([]string{m.String(), fmt.Sprint(len(m.Instructions())), fmt.Sprint(len(m.TryBlocks()))})
	}
	table.Render()
	return buf.String()
}

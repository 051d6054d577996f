package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/olekukonko/tablewriter"
)

func renderTable(w io.Writer, list []domain.Insight) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No insights for the current transaction history.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Severity", "Type", "Title", "Description"})
	table.SetAutoWrapText(false)
	for _, in := range list {
		table.Append([]string{string(in.Severity), string(in.Type), in.Title, in.Description})
	}
	table.Render()
}

func renderJSON(w io.Writer, list []domain.Insight) error {
	if list == nil {
		list = []domain.Insight{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

func renderRules(w io.Writer, types []domain.InsightType) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Rule"})
	for i, typ := range types {
		table.Append([]string{fmt.Sprint(i + 1), string(typ)})
	}
	table.Render()
}

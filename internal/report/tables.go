package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/himetrics/attrition/dataset"
	"github.com/himetrics/attrition/metrics"
)

var heading = color.New(color.FgCyan, color.Bold)

// renderResults writes the model comparison table. The best AUC row is
// highlighted and its confusion counts follow the table.
func renderResults(w io.Writer, results []ModelResult) {
	if len(results) == 0 {
		return
	}
	heading.Fprintln(w, "\nHeld-out model comparison")

	best := 0
	for i, res := range results {
		if res.AUC > results[best].AUC {
			best = i
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "Accuracy", "AUC", "Log loss"})
	for i, res := range results {
		name := res.Name
		if i == best {
			name = color.GreenString(name)
		}
		logLoss := "-"
		if !math.IsNaN(res.LogLoss) {
			logLoss = fmt.Sprintf("%.4f", res.LogLoss)
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%.4f", res.Accuracy),
			fmt.Sprintf("%.4f", res.AUC),
			logLoss,
		})
	}
	table.Render()

	if results[best].Confusion != nil {
		renderConfusion(w, results[best].Name, results[best].Confusion)
	}
}

// renderConfusion writes held-out confusion counts, true labels in rows.
func renderConfusion(w io.Writer, name string, cm *metrics.ConfusionMatrix) {
	heading.Fprintln(w, "\nHeld-out confusion: "+name)

	header := []string{"True / Pred"}
	for _, label := range cm.Labels {
		header = append(header, strconv.Itoa(label))
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for i, label := range cm.Labels {
		row := []string{strconv.Itoa(label)}
		for _, count := range cm.Counts[i] {
			row = append(row, fmt.Sprintf("%d", count))
		}
		table.Append(row)
	}
	table.Render()
}

// renderSummaries writes the per-column descriptive statistics.
func renderSummaries(w io.Writer, summaries []dataset.ColumnSummary) {
	heading.Fprintln(w, "\nNumeric column summary")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Mean", "Std", "Min", "Q1", "Median", "Q3", "Max"})
	for _, s := range summaries {
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.2f", s.Std),
			fmt.Sprintf("%.2f", s.Min),
			fmt.Sprintf("%.2f", s.Q1),
			fmt.Sprintf("%.2f", s.Median),
			fmt.Sprintf("%.2f", s.Q3),
			fmt.Sprintf("%.2f", s.Max),
		})
	}
	table.Render()
}

// renderCrossTab writes a contingency table with row and column totals.
func renderCrossTab(w io.Writer, title string, ct *dataset.CrossTab) {
	heading.Fprintln(w, "\n"+title)

	header := append([]string{""}, ct.BLevels...)
	header = append(header, "Total")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for i, level := range ct.ALevels {
		row := []string{level}
		total := 0
		for _, count := range ct.Counts[i] {
			row = append(row, fmt.Sprintf("%d", count))
			total += count
		}
		row = append(row, fmt.Sprintf("%d", total))
		table.Append(row)
	}
	table.SetFooter(append([]string{"Total"}, columnTotals(ct)...))
	table.Render()
}

func columnTotals(ct *dataset.CrossTab) []string {
	totals := make([]int, len(ct.BLevels))
	grand := 0
	for i := range ct.ALevels {
		for j, count := range ct.Counts[i] {
			totals[j] += count
			grand += count
		}
	}
	out := make([]string, 0, len(totals)+1)
	for _, t := range totals {
		out = append(out, fmt.Sprintf("%d", t))
	}
	return append(out, fmt.Sprintf("%d", grand))
}

// renderClusterMeans writes per-cluster means of selected numeric columns.
func renderClusterMeans(w io.Writer, clusters, columns []string, rows [][]float64) {
	heading.Fprintln(w, "\nCluster means")

	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Cluster"}, columns...))
	for i, name := range clusters {
		row := []string{name}
		for _, v := range rows[i] {
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		table.Append(row)
	}
	table.Render()
}

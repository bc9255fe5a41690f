package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"coverharvest/internal/harvest"
)

func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, col := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      col,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderStats(stats harvest.Stats) string {
	itoa := strconv.Itoa
	rows := [][]string{
		{"Run", stats.RunID},
		{"Artists", fmt.Sprintf("%d (offset %d → %d of %d)", stats.Artists, stats.StartOffset, stats.EndOffset, stats.TotalArtists)},
		{"Release groups", itoa(stats.ReleaseGroups)},
	}
	reasons := make([]string, 0, len(stats.Skipped))
	for reason := range stats.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []string{"Skipped: " + reason, itoa(stats.Skipped[reason])})
	}
	rows = append(rows,
		[]string{"Covers saved", itoa(stats.Covers)},
		[]string{"Covers uploaded", itoa(stats.Uploads)},
		[]string{"Rows inserted", itoa(stats.RowsInserted)},
		[]string{"Rows already present", itoa(stats.RowsExisting)},
		[]string{"CSV rows appended", itoa(stats.CSVAppended)},
		[]string{"CSV rows already present", itoa(stats.CSVExisting)},
		[]string{"Completed", yesNo(stats.Completed)},
		[]string{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()},
	)
	return renderTable([]string{"Metric", "Value"}, rows)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

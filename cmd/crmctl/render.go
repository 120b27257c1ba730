package main

import (
	"fmt"
	"io"

	scoringtransport "crm_backend/internal/scoring/transport"
	segmentationtransport "crm_backend/internal/segmentation/transport"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderScores(w io.Writer, resp scoringtransport.RunResponse, top int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Lead scores (%d scored in %.1fms)", resp.Scored, resp.DurationMs))
	t.AppendHeader(table.Row{"#", "Name", "Company", "Company Size", "Score"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for i, lead := range resp.Scores {
		if top > 0 && i >= top {
			break
		}
		size := "-"
		if lead.CompanySize != nil {
			size = fmt.Sprint(*lead.CompanySize)
		}
		t.AppendRow(table.Row{i + 1, lead.Name, lead.Company, size, lead.LeadScore})
	}
	t.Render()
}

func renderSegments(w io.Writer, resp segmentationtransport.SegmentationResponse) {
	customers := table.NewWriter()
	customers.SetOutputMirror(w)
	customers.SetStyle(table.StyleLight)
	customers.SetTitle("Customer segments")
	customers.AppendHeader(table.Row{"Name", "Company", "Deals", "Revenue", "Avg Deal", "Segment"})
	for _, c := range resp.Customers {
		customers.AppendRow(table.Row{c.Name, c.Company, c.TotalDeals, c.TotalRevenue, c.AvgDealSize, c.Segment})
	}
	customers.Render()

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.SetTitle("Segment analysis")
	summary.AppendHeader(table.Row{"Segment", "Customers", "Revenue", "Avg Deal Size"})
	for _, a := range resp.Analysis {
		summary.AppendRow(table.Row{a.Segment, a.CustomerCount, a.TotalRevenue, a.AvgDealSizeAvg})
	}
	summary.Render()
}

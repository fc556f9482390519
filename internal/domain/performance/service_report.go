package performance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// GenerateLeaderboardPDF renders the ranked leaderboard of a cycle as a
// PDF document for HR distribution.
func (s *Service) GenerateLeaderboardPDF(ctx context.Context, cycleID, limit int) ([]byte, error) {
	cycle, entries, err := s.Leaderboard(ctx, cycleID, limit)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Leaderboard")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Cycle %d: %s to %s",
		cycle.ID, cycle.StartDate.Format("2006-01-02"), cycle.EndDate.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(12, 8, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 8, "Employee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 8, "Tag", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Net Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, entry := range entries {
		name := entry.Name
		if name == "" {
			name = entry.EmployeeID
		}
		pdf.CellFormat(12, 8, fmt.Sprintf("%d", entry.Rank), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", entry.CeilingAverage), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 8, entry.FinalTag, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", entry.NetAmount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	if len(entries) == 0 {
		pdf.Cell(0, 8, "No qualifying reviews in this cycle.")
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

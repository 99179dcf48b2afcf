package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gabrielmr/notaflow/internal/model"
)

// columns mirrors the portal's results table, followed by the capture
// outcome fields.
var columns = []string{
	"LOJA", "REFERÊNCIA SAP", "NÚMERO DUPLIC.", "DATA DE EMISSÃO",
	"VENCIMENTO", "VALOR", "STATUS", "CATEGORIA", "ARQUIVO",
}

// portalCells is how many of the columns come straight from the row data.
const portalCells = 6

// Render writes the outcome table and a summary for one run.
func Render(w io.Writer, run *model.Run, outcomes []model.DownloadOutcome) error {
	if _, err := fmt.Fprintln(w, FormatTitle("RELATÓRIO FINAL")); err != nil {
		return err
	}

	if run != nil {
		header := fmt.Sprintf("run %d · started %s · destination %s",
			run.ID, run.StartedAt.Format("02/01/2006 15:04"), run.DestRoot)
		if _, err := fmt.Fprintln(w, subtleStyle.Render(header)); err != nil {
			return err
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers(columns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})

	for _, outcome := range outcomes {
		row := make([]string, 0, len(columns))
		for i := 0; i < portalCells; i++ {
			row = append(row, outcome.Row.Cell(i))
		}
		row = append(row, statusLabel(outcome.Status), categoryLabel(outcome), outcome.FinalPath)
		tbl.Row(row...)
	}

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, Summary(outcomes))
	return err
}

// Summary returns the one-line tally of a run's outcomes.
func Summary(outcomes []model.DownloadOutcome) string {
	counts := make(map[model.OutcomeStatus]int, 5)
	for _, o := range outcomes {
		counts[o.Status]++
	}

	parts := []string{
		fmt.Sprintf("%d rows processed", len(outcomes)),
		successStyle.Render(fmt.Sprintf("%d classified", counts[model.StatusClassified])),
		warningStyle.Render(fmt.Sprintf("%d to general bucket",
			counts[model.StatusUnclassifiedMoved]+counts[model.StatusExtractFailed])),
		errorStyle.Render(fmt.Sprintf("%d failed",
			counts[model.StatusTriggerFailed]+counts[model.StatusDownloadTimedOut])),
	}
	return strings.Join(parts, " · ")
}

func statusLabel(status model.OutcomeStatus) string {
	switch status {
	case model.StatusClassified:
		return successStyle.Render("classificado")
	case model.StatusUnclassifiedMoved:
		return warningStyle.Render("sem regra")
	case model.StatusExtractFailed:
		return warningStyle.Render("ilegível")
	case model.StatusDownloadTimedOut:
		return errorStyle.Render("download falhou")
	case model.StatusTriggerFailed:
		return errorStyle.Render("clique falhou")
	default:
		return string(status)
	}
}

func categoryLabel(outcome model.DownloadOutcome) string {
	if outcome.Category != "" {
		return outcome.Category
	}
	if outcome.Status.FileRetained() {
		return subtleStyle.Render("unclassified")
	}
	return ""
}

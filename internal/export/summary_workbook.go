package export

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	OverviewSheet  = "Summary"
	QuestionsSheet = "Questions"
)

// QuestionHeaders are the column titles of the questions sheet.
var QuestionHeaders = []string{
	"#", "Question ID", "Question", "Answered", "Correct", "Points",
	"Selected", "Correct Answer", "Explanation",
}

// SummaryWorkbook renders a completion summary as an xlsx workbook.
func SummaryWorkbook(summary engine.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", OverviewSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	overview := [][]interface{}{
		{"Quiz", summary.Title},
		{"Subject", summary.Subject},
		{"Quiz ID", summary.QuizID.String()},
		{"Questions", summary.QuestionCount},
		{"Answered", summary.AnsweredCount},
		{"Score", summary.Score},
		{"Total Points", summary.TotalPoints},
		{"Completed", yesNo(summary.Completed)},
		{"Perfect", yesNo(summary.Perfect)},
	}
	for i, row := range overview {
		if err := writeRow(f, OverviewSheet, i+1, row); err != nil {
			return nil, err
		}
	}

	index, err := f.NewSheet(QuestionsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := make([]interface{}, len(QuestionHeaders))
	for i, h := range QuestionHeaders {
		headers[i] = h
	}
	if err := writeRow(f, QuestionsSheet, 1, headers); err != nil {
		return nil, err
	}

	for i, item := range summary.Items {
		row := []interface{}{
			item.Position + 1,
			item.QuestionID.String(),
			item.Text,
			yesNo(item.Answered),
			yesNo(item.Correct),
			item.Points,
			joinAnswers(item.SelectedText, item.Selected),
			joinAnswers(item.CorrectText, item.CorrectIDs),
			item.Explanation,
		}
		if err := writeRow(f, QuestionsSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// joinAnswers prefers option texts and falls back to ids for options without text.
func joinAnswers(texts []string, ids []models.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if i < len(texts) && texts[i] != "" {
			parts[i] = texts[i]
		} else {
			parts[i] = id.String()
		}
	}
	return strings.Join(parts, ", ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

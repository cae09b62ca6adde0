package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"File ID", "Filename", "Content Type", "Size (bytes)", "Owner",
	"Tags", "Description", "Status", "Chunks", "Created At", "Updated At",
}

// Export renders one filtered listing page (up to the configured ceiling)
// as an XLSX workbook and returns the bytes plus a download filename.
func (s *MediaServiceImpl) Export(ctx context.Context, filter ListFilter) ([]byte, string, error) {
	result, err := s.List(ctx, filter, 0, s.Config.MaxListLimit)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Files"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, file := range result.Files {
		row := []interface{}{
			file.ID.Hex(),
			file.Filename,
			file.ContentType,
			file.SizeBytes,
			file.OwnerID,
			strings.Join(file.Tags, ", "),
			file.Description,
			string(file.Status),
			file.ChunkCount,
			file.CreatedAt.Format("2006-01-02 15:04:05"),
			file.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("media_files_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	return buffer.Bytes(), filename, nil
}

package inventory

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/bookstore/internal/domain"
)

const exportSheet = "Inventory"

var exportHeader = []any{"ID", "Name", "ISBN", "Author", "Publisher", "Type", "Price", "Quantity", "Updated By", "Updated On"}

// Export writes every book matching filter to an xlsx workbook.
// Paging fields of filter are ignored.
func (s *Service) Export(ctx context.Context, filter domain.BookFilter) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name export sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	filter.Limit = s.pageSize
	filter.Offset = 0
	row := 2
	for {
		page, err := s.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to load books for export: %w", err)
		}
		for _, b := range page.Books {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			values := []any{
				b.ID, b.Name, b.ISBN, b.Author, b.Publisher, b.TypeName,
				b.Price, b.Quantity, b.UpdatedBy, b.UpdatedOn.Format("2006-01-02 15:04"),
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write export row %d: %w", row, err)
			}
			row++
		}
		filter.Offset += len(page.Books)
		if len(page.Books) == 0 || filter.Offset >= page.Total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Copyright 2024 The Open Tourney Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"open-tourney.dev/open-tourney/internal/schedule"
)

// WriteScheduleXLSX writes the board view of the schedule: one sheet per
// round type, time rows by location columns, team names in the cells.
func WriteScheduleXLSX(w io.Writer, grids []schedule.Grid) error {
	if len(grids) == 0 {
		return errors.New("there are no grids to export")
	}

	f := excelize.NewFile()
	for i, g := range grids {
		sheet := g.Round
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet)
		} else {
			f.NewSheet(sheet)
		}

		if err := setCell(f, sheet, 1, 1, "time"); err != nil {
			return err
		}
		for col, loc := range g.Locations {
			if err := setCell(f, sheet, col+2, 1, loc); err != nil {
				return err
			}
		}
		for row, clock := range g.Times {
			if err := setCell(f, sheet, 1, row+2, clock); err != nil {
				return err
			}
			for col, team := range g.Cells[row] {
				if err := setCell(f, sheet, col+2, row+2, team); err != nil {
					return err
				}
			}
		}

		last, err := excelize.ColumnNumberToName(len(g.Locations) + 1)
		if err != nil {
			return errors.Wrap(err, "failed to size the grid columns")
		}
		if err := f.SetColWidth(sheet, "A", last, 14); err != nil {
			return errors.Wrapf(err, "failed to size the %s columns", sheet)
		}
	}
	f.SetActiveSheet(0)

	return errors.Wrap(f.Write(w), "failed to write the workbook")
}

func setCell(f *excelize.File, sheet string, col, row int, v string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrapf(err, "failed to address cell (%d, %d)", col, row)
	}
	return errors.Wrapf(f.SetCellValue(sheet, cell, v), "failed to set cell %s on %s", cell, sheet)
}

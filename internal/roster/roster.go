package roster

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Column header names that identify surname and given-name columns. Sheets
// come from several municipal secretariats, so both Spanish and English
// headers show up.
var (
	surnameHeaders = []string{"apellidos", "apellido", "surname", "surnames", "last name", "lastname", "primer apellido"}
	nameHeaders    = []string{"nombre", "nombres", "name", "firstname", "first name"}
)

// Parse reads attendee full names from the first sheet of an xlsx roster.
// Names are title-cased, deduplicated and sorted. A sheet with no
// recognizable name columns yields an error rather than a silent empty list.
func Parse(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read roster sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster sheet is empty")
	}

	nameCol, surnameCol := findColumns(rows[0])
	dataRows := rows[1:]

	if nameCol < 0 && surnameCol < 0 {
		// No recognizable headers; fall back to the first mostly-textual
		// column and treat every row as data.
		nameCol = fallbackColumn(rows)
		dataRows = rows
		if nameCol < 0 {
			return nil, fmt.Errorf("no name columns found in roster")
		}
	}

	seen := map[string]bool{}
	var names []string
	for _, row := range dataRows {
		full := composeName(row, nameCol, surnameCol)
		if len([]rune(full)) <= 2 {
			continue
		}
		full = titleCase(full)
		if !seen[full] {
			seen[full] = true
			names = append(names, full)
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("roster yielded no attendee names")
	}
	return names, nil
}

// findColumns scans the header row for name and surname columns, matching
// case-insensitively on trimmed header text.
func findColumns(header []string) (nameCol, surnameCol int) {
	nameCol, surnameCol = -1, -1
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		if nameCol < 0 && contains(nameHeaders, h) {
			nameCol = i
		}
		if surnameCol < 0 && contains(surnameHeaders, h) {
			surnameCol = i
		}
	}
	return nameCol, surnameCol
}

// fallbackColumn picks the first column whose cells are mostly non-numeric
// text, for sheets exported without a header row.
func fallbackColumn(rows [][]string) int {
	if len(rows) == 0 {
		return -1
	}
	cols := len(rows[0])
	for col := 0; col < cols; col++ {
		textual, total := 0, 0
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			total++
			if !isNumeric(cell) {
				textual++
			}
		}
		if total > 0 && textual*2 > total {
			return col
		}
	}
	return -1
}

func composeName(row []string, nameCol, surnameCol int) string {
	var parts []string
	if nameCol >= 0 && nameCol < len(row) {
		if v := strings.TrimSpace(row[nameCol]); v != "" {
			parts = append(parts, v)
		}
	}
	if surnameCol >= 0 && surnameCol < len(row) {
		if v := strings.TrimSpace(row[surnameCol]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != '-' && r != ' ' {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

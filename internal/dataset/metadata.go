package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"leetlens/pkg/contracts/domain"
)

// problemMetadata is one row of the external per-problem metadata table.
type problemMetadata struct {
	Likes    *float64
	Dislikes *float64
}

// slugColumnAliases are the historical spellings accepted for the join key
// of the external metadata table.
var slugColumnAliases = []string{"title_slug", "titleslug", "slug", "question_slug"}

// joinMetadata left-joins the external metadata table on title_slug and
// returns how many records were enriched.
func (b *Builder) joinMetadata(records []domain.ProblemRecord) (int, error) {
	meta, err := loadMetadataTable(b.metadataPath)
	if err != nil {
		return 0, err
	}

	joined := 0
	for i := range records {
		m, ok := meta[records[i].TitleSlug]
		if !ok {
			continue
		}
		records[i].Likes = m.Likes
		records[i].Dislikes = m.Dislikes
		joined++
	}
	return joined, nil
}

// loadMetadataTable reads the external table keyed by slug. CSV and XLSX
// sources are both accepted.
func loadMetadataTable(path string) (map[string]problemMetadata, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("metadata table %s has no data rows", path)
	}

	header := rows[0]
	slugIdx := -1
	likesIdx := -1
	dislikesIdx := -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		name = strings.ReplaceAll(name, " ", "_")
		for _, alias := range slugColumnAliases {
			if name == alias {
				slugIdx = i
			}
		}
		switch name {
		case "likes":
			likesIdx = i
		case "dislikes":
			dislikesIdx = i
		}
	}
	if slugIdx == -1 {
		return nil, fmt.Errorf("metadata table %s has no recognizable slug column", path)
	}

	meta := make(map[string]problemMetadata, len(rows)-1)
	for _, row := range rows[1:] {
		if slugIdx >= len(row) {
			continue
		}
		slug := strings.TrimSpace(row[slugIdx])
		if slug == "" {
			continue
		}
		meta[slug] = problemMetadata{
			Likes:    cellFloat(row, likesIdx),
			Dislikes: cellFloat(row, dislikesIdx),
		}
	}
	return meta, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("metadata workbook %s has no sheets", path)
	}
	return f.GetRows(sheets[0])
}

func cellFloat(row []string, idx int) *float64 {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return nil
	}
	return &value
}

package pipeline

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

// populationRow is one line of the population summary table.
type populationRow struct {
	CellType string
	Count    int
	Percent  float64
}

// buildPopulation aggregates per-cell labels into a summary sorted by count
// descending. Ties keep the order in which a cell type was first encountered,
// walking cell ids in ascending order. Percentages are of totalCells, rounded
// to four decimals.
func buildPopulation(cellTypes []string, totalCells int) []populationRow {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for i, ct := range cellTypes {
		if _, ok := counts[ct]; !ok {
			firstSeen[ct] = i
			order = append(order, ct)
		}
		counts[ct]++
	}

	rows := make([]populationRow, 0, len(order))
	for _, ct := range order {
		pct := 0.0
		if totalCells > 0 {
			pct = 100 * float64(counts[ct]) / float64(totalCells)
		}
		rows = append(rows, populationRow{
			CellType: ct,
			Count:    counts[ct],
			Percent:  math.Round(pct*1e4) / 1e4,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// writeCellTypeTable writes the per-cell label table, one row per cell id in
// ascending order starting at 1.
func writeCellTypeTable(path string, cellTypes []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Cell_ID", "Cell_Name"}); err != nil {
		return err
	}
	for i, ct := range cellTypes {
		if err := w.Write([]string{strconv.Itoa(i + 1), ct}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writePopulationTable writes the population summary table.
func writePopulationTable(path string, rows []populationRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Cell_type", "Cell_Count", "Percentages"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.CellType, strconv.Itoa(r.Count), fmt.Sprintf("%.4f", r.Percent)}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPopulationSortedDescending(t *testing.T) {
	cellTypes := make([]string, 0, 100)
	for i := 0; i < 30; i++ {
		cellTypes = append(cellTypes, "T1")
	}
	for i := 0; i < 70; i++ {
		cellTypes = append(cellTypes, "T2")
	}

	rows := buildPopulation(cellTypes, 100)
	require.Len(t, rows, 2)
	assert.Equal(t, populationRow{CellType: "T2", Count: 70, Percent: 70}, rows[0])
	assert.Equal(t, populationRow{CellType: "T1", Count: 30, Percent: 30}, rows[1])
}

func TestBuildPopulationTiesFirstEncountered(t *testing.T) {
	// T3 and T1 both have two cells; T1 was seen first (cell id 1).
	cellTypes := []string{"T1", "T3", "T2", "T3", "T1"}

	rows := buildPopulation(cellTypes, 5)
	require.Len(t, rows, 3)
	assert.Equal(t, "T1", rows[0].CellType)
	assert.Equal(t, "T3", rows[1].CellType)
	assert.Equal(t, "T2", rows[2].CellType)
}

func TestBuildPopulationRounding(t *testing.T) {
	rows := buildPopulation([]string{"A", "A", "B"}, 3)
	require.Len(t, rows, 2)
	assert.InDelta(t, 66.6667, rows[0].Percent, 1e-9)
	assert.InDelta(t, 33.3333, rows[1].Percent, 1e-9)

	total := 0.0
	for _, r := range rows {
		total += r.Percent
	}
	assert.InDelta(t, 100, total, 0.001, "percentages sum to 100 of counted cells")
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()

	cellPath := filepath.Join(dir, "types.csv")
	require.NoError(t, writeCellTypeTable(cellPath, []string{"T2", "T2", "T1"}))

	data, err := os.ReadFile(cellPath)
	require.NoError(t, err)
	assert.Equal(t, "Cell_ID,Cell_Name\n1,T2\n2,T2\n3,T1\n", string(data))

	popPath := filepath.Join(dir, "population.csv")
	require.NoError(t, writePopulationTable(popPath, buildPopulation([]string{"T2", "T2", "T1"}, 3)))

	data, err = os.ReadFile(popPath)
	require.NoError(t, err)
	assert.Equal(t, "Cell_type,Cell_Count,Percentages\nT2,2,66.6667\nT1,1,33.3333\n", string(data))
}

package portfolio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/foliotrack/portfolio-engine/internal/ticker"
)

// LoadSectorTable reads a YAML file of the form
//
//	IT: [TCS, INFY]
//	Banking: [HDFCBANK]
//
// A symbol listed under two sectors is an error.
func LoadSectorTable(path string) (SectorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector file '%s': %w", path, err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sectors from YAML: %w", err)
	}

	table := SectorTable{}
	for sector, symbols := range raw {
		for _, s := range symbols {
			sym, err := ticker.ParseSymbol(s)
			if err != nil {
				return nil, fmt.Errorf("sector %s: %w", sector, err)
			}
			if prev, dup := table[sym]; dup && prev != sector {
				return nil, fmt.Errorf("symbol %s listed under both %s and %s", sym, prev, sector)
			}
			table[sym] = sector
		}
	}
	return table, nil
}

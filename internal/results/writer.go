// Package results assembles the final generation table and persists it as
// CSV.  One row per originally generated molecule: SMILES, the first
// predicted property, and the incoherence score when coherence evaluation
// ran.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samber/lo"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// Row is the final persisted unit.
type Row struct {
	// SMILES is the generated molecule.
	SMILES string

	// PredictedProperty is the first property head's prediction; nil when
	// property prediction was disabled for the run.
	PredictedProperty *float64

	// Incoherence is nil when coherence evaluation was skipped or the
	// molecule did not survive reconstruction.
	Incoherence *float64
}

// Assemble builds one Row per molecule.  properties may be nil (no property
// head); incoherence must have one entry per molecule, nil entries marking
// absent scores.
func Assemble(smiles []string, properties [][]float64, incoherence []*float64) ([]Row, error) {
	if properties != nil && len(properties) != len(smiles) {
		return nil, errors.Newf(errors.CodeInvalidParam,
			"%d molecules but %d property rows", len(smiles), len(properties))
	}
	if len(incoherence) != len(smiles) {
		return nil, errors.Newf(errors.CodeInvalidParam,
			"%d molecules but %d incoherence entries", len(smiles), len(incoherence))
	}

	return lo.Map(smiles, func(sm string, i int) Row {
		row := Row{SMILES: sm, Incoherence: incoherence[i]}
		if properties != nil && len(properties[i]) > 0 {
			p := properties[i][0]
			row.PredictedProperty = &p
		}
		return row
	}), nil
}

// OutputPath returns the conventional result location,
// <sampleDir>/<name>_<method>_<epoch>/<name>_gen.csv.
func OutputPath(sampleDir, name, method, epoch string) string {
	genName := fmt.Sprintf("%s_%s_%s", name, method, epoch)
	return filepath.Join(sampleDir, genName, fmt.Sprintf("%s_gen.csv", name))
}

// Write persists rows as CSV at path, creating parent directories first.
// Directory creation is idempotent; an existing target file is overwritten.
func Write(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeResultWrite, "creating sample directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeResultWrite, "creating result file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"smiles", "predicted_property", "incoherence"}); err != nil {
		return errors.Wrap(err, errors.CodeResultWrite, "writing header")
	}
	for _, row := range rows {
		record := []string{row.SMILES, formatOptional(row.PredictedProperty), formatOptional(row.Incoherence)}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, errors.CodeResultWrite, "writing row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CodeResultWrite, "flushing result file")
	}
	return nil
}

// formatOptional renders a nullable float; absent values become the empty
// string, matching a null cell in the table.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

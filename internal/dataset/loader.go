// Package dataset loads the SMILES splits of a molecular dataset from disk
// and exposes the training molecules as encoder batches via the external
// conformer generator.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// smilesColumn is the required identifier column in every split file.
const smilesColumn = "smiles"

// Split is one loaded dataset partition.  Props rows align with SMILES and
// hold the requested property columns in request order.
type Split struct {
	SMILES []string
	Props  [][]float64
}

// Len returns the number of molecules in the split.
func (s *Split) Len() int { return len(s.SMILES) }

// Splits bundles the three standard partitions.
type Splits struct {
	Train *Split
	Valid *Split
	Test  *Split
}

// LoadOptions controls filtering during split loading.
type LoadOptions struct {
	// Properties names the CSV columns to extract, already resolved via
	// ResolveProperties.  May be empty.
	Properties []string

	// MaxHeavyAtoms drops molecules with more heavy atoms; zero disables
	// the filter.
	MaxHeavyAtoms int

	// MaxLength drops molecules whose SMILES string is longer; zero
	// disables the filter.
	MaxLength int
}

// LoadSplits reads train.csv, valid.csv and test.csv from dataDir.
func LoadSplits(dataDir string, opts LoadOptions) (*Splits, error) {
	splits := &Splits{}
	for _, part := range []struct {
		file string
		dst  **Split
	}{
		{"train.csv", &splits.Train},
		{"valid.csv", &splits.Valid},
		{"test.csv", &splits.Test},
	} {
		split, err := loadSplit(filepath.Join(dataDir, part.file), opts)
		if err != nil {
			return nil, err
		}
		*part.dst = split
	}
	return splits, nil
}

func loadSplit(path string, opts LoadOptions) (*Split, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatasetLoad, "opening split file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatasetLoad, "reading split header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	smilesIdx, ok := cols[smilesColumn]
	if !ok {
		return nil, errors.Newf(errors.CodeDatasetLoad, "split file %s has no %q column", filepath.Base(path), smilesColumn)
	}
	propIdx := make([]int, len(opts.Properties))
	for i, name := range opts.Properties {
		idx, ok := cols[name]
		if !ok {
			return nil, errors.Newf(errors.CodeDatasetLoad, "split file %s has no %q column", filepath.Base(path), name)
		}
		propIdx[i] = idx
	}

	split := &Split{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatasetLoad, "reading split row")
		}

		smiles := record[smilesIdx]
		if opts.MaxLength > 0 && len(smiles) > opts.MaxLength {
			continue
		}
		if opts.MaxHeavyAtoms > 0 && HeavyAtomCount(smiles) > opts.MaxHeavyAtoms {
			continue
		}

		props := make([]float64, len(propIdx))
		for i, idx := range propIdx {
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeDatasetLoad, "parsing property value")
			}
			props[i] = v
		}

		split.SMILES = append(split.SMILES, smiles)
		split.Props = append(split.Props, props)
	}
	return split, nil
}

// HeavyAtomCount counts non-hydrogen atoms in a SMILES string.  It scans for
// organic-subset symbols and bracket atoms without building a molecular
// graph, which is enough for size filtering.
func HeavyAtomCount(smiles string) int {
	count := 0
	runes := []rune(smiles)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '[':
			// Bracket atom: count it unless it is an explicit hydrogen.
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if !isBracketHydrogen(runes[i+1 : j]) {
				count++
			}
			i = j
		case c == 'C', c == 'N', c == 'O', c == 'P', c == 'S', c == 'F', c == 'I', c == 'B':
			// Two-letter organic-subset symbols share first letters with
			// one-letter ones; Cl and Br are the only ambiguous cases.
			if c == 'C' && i+1 < len(runes) && runes[i+1] == 'l' {
				i++
			} else if c == 'B' && i+1 < len(runes) && runes[i+1] == 'r' {
				i++
			}
			count++
		case c == 'c', c == 'n', c == 'o', c == 'p', c == 's', c == 'b':
			count++
		}
	}
	return count
}

func isBracketHydrogen(body []rune) bool {
	// Skip a leading isotope number, e.g. [2H].
	i := 0
	for i < len(body) && unicode.IsDigit(body[i]) {
		i++
	}
	// H followed by anything except a lower-case letter is hydrogen; Hg, He
	// and friends are not.
	return i < len(body) && body[i] == 'H' &&
		(i+1 >= len(body) || !unicode.IsLower(body[i+1]))
}

package latent

import (
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// MeansFile is the conventional cache filename inside a run's checkpoint
// directory.
const MeansFile = "train_mems.npy"

// MeansPath returns the cache location for a checkpoint directory.
func MeansPath(ckptDir string) string {
	return filepath.Join(ckptDir, MeansFile)
}

// LoadMeans reads a cached means matrix from a NumPy .npy file.  An absent
// file is an expected cache miss, reported via found=false with a nil error;
// a present but unreadable file is a hard error.
func LoadMeans(path string) (means [][]float64, found bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CodeCacheCorrupt, "opening means cache")
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, false, errors.Wrap(err, errors.CodeCacheCorrupt, "reading means cache").WithDetail("path=" + path)
	}

	rows, cols := m.Dims()
	means = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		means[i] = make([]float64, cols)
		mat.Row(means[i], i, &m)
	}
	return means, true, nil
}

// SaveMeans writes the means matrix as a NumPy .npy file, creating the
// directory if needed.  The write is once-per-run; no locking is required
// since concurrent writers are out of scope.
func SaveMeans(path string, means [][]float64) error {
	if len(means) == 0 {
		return errors.InvalidParam("refusing to cache an empty means matrix")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "creating cache directory")
	}

	rows := len(means)
	cols := len(means[0])
	flat := make([]float64, 0, rows*cols)
	for i, row := range means {
		if len(row) != cols {
			return errors.Newf(errors.CodeInvalidParam,
				"means row %d has %d dimensions, expected %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "creating means cache")
	}
	defer f.Close()

	m := mat.NewDense(rows, cols, flat)
	if err := npyio.Write(f, m); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "writing means cache").WithDetail("path=" + path)
	}
	return nil
}

// Package capdata carries the built-in terminal capability dataset.
package capdata

import (
	_ "embed"
	"sync"

	"github.com/hpungsan/termcaps/internal/capinfo"
)

//go:embed capdata.yaml
var dataset []byte

var (
	once   sync.Once
	loaded *capinfo.Database
	err    error
)

// Bytes returns a copy of the raw built-in dataset.
func Bytes() []byte {
	return append([]byte(nil), dataset...)
}

// Load returns the built-in database. It is parsed once and shared; the
// database is read-only so sharing is safe.
func Load() (*capinfo.Database, error) {
	once.Do(func() {
		loaded, err = capinfo.Load(dataset)
	})
	return loaded, err
}

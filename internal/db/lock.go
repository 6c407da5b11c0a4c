package db

import (
	"fmt"

	"github.com/gofrs/flock"
)

// LockStore takes an exclusive advisory lock on a file beside the store at
// path and returns the function that releases it. Writers hold it so that
// the digest check and insert in SaveSnapshot are not interleaved across
// processes; readers do not need it.
func LockStore(path string) (unlock func() error, err error) {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock snapshot store: %w", err)
	}
	return fl.Unlock, nil
}

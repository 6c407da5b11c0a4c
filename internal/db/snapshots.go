package db

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/errors"
)

// Build describes one compiled snapshot of a dataset.
type Build struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Digest    string `json:"digest"`
	Profiles  int    `json:"profiles"`
	CreatedAt int64  `json:"created_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a ULID; IDs from one process sort in creation order.
func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Digest returns the content digest of a database's canonical form.
func Digest(capdb *capinfo.Database) (string, error) {
	data, err := capinfo.Marshal(capdb)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SaveSnapshot stores capdb as a new build. If the newest build already has
// identical content it is returned instead and created is false.
func SaveSnapshot(db *sql.DB, capdb *capinfo.Database, source string) (build *Build, created bool, err error) {
	digest, err := Digest(capdb)
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}

	latest, err := LatestBuild(db)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}
	if latest != nil && latest.Digest == digest {
		return latest, false, nil
	}

	profiles := capdb.Profiles()
	b := &Build{
		ID:        newID(),
		Source:    source,
		Digest:    digest,
		Profiles:  len(profiles),
		CreatedAt: time.Now().Unix(),
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO builds (id, source, digest, profile_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Source, b.Digest, b.Profiles, b.CreatedAt)
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO profiles (build_id, position, compact, pretty, term, record_yaml)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	defer stmt.Close()

	for i, p := range profiles {
		record, merr := capinfo.MarshalProfiles([]capinfo.Profile{p})
		if merr != nil {
			err = errors.NewInternal(merr)
			return nil, false, err
		}
		if _, err = stmt.Exec(b.ID, i, p.Name.Compact, p.Name.Pretty, p.Name.Term, string(record)); err != nil {
			return nil, false, errors.NewInternal(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return b, true, nil
}

// GetBuild retrieves a build by its ULID.
func GetBuild(db *sql.DB, id string) (*Build, error) {
	row := db.QueryRow(`
		SELECT id, source, digest, profile_count, created_at
		FROM builds
		WHERE id = ?
	`, id)
	b, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return b, nil
}

// LatestBuild returns the most recently created build.
func LatestBuild(db *sql.DB) (*Build, error) {
	row := db.QueryRow(`
		SELECT id, source, digest, profile_count, created_at
		FROM builds
		ORDER BY id DESC
		LIMIT 1
	`)
	b, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("latest build")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return b, nil
}

// ListBuilds returns every build, newest first.
func ListBuilds(db *sql.DB) ([]Build, error) {
	rows, err := db.Query(`
		SELECT id, source, digest, profile_count, created_at
		FROM builds
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		builds = append(builds, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return builds, nil
}

// DeleteBuild removes a build and its profiles.
func DeleteBuild(db *sql.DB, id string) error {
	result, err := db.Exec("DELETE FROM builds WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// LoadSnapshot reads a build back into a database. An empty id selects the
// latest build. The stored records go through capinfo.Load, so a snapshot
// is validated exactly like a dataset file.
func LoadSnapshot(db *sql.DB, id string) (*capinfo.Database, *Build, error) {
	var (
		b   *Build
		err error
	)
	if id == "" {
		b, err = LatestBuild(db)
	} else {
		b, err = GetBuild(db, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.Query(`
		SELECT record_yaml FROM profiles
		WHERE build_id = ?
		ORDER BY position ASC
	`, b.ID)
	if err != nil {
		return nil, nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	n := 0
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, nil, errors.NewInternal(err)
		}
		buf.WriteString(record)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.NewInternal(err)
	}
	if n != b.Profiles {
		return nil, nil, errors.NewInternal(fmt.Errorf("build %s has %d profiles, expected %d", b.ID, n, b.Profiles))
	}

	capdb, err := capinfo.Load(buf.Bytes())
	if err != nil {
		return nil, nil, err
	}
	return capdb, b, nil
}

// LookupProfile finds one profile in a build without loading the rest.
// It follows the same precedence as capinfo.Database.Resolve: a compact
// name match first, then the first profile with a matching $TERM.
func LookupProfile(db *sql.DB, buildID, identifier string) (capinfo.Profile, bool, error) {
	var record string
	err := db.QueryRow(`
		SELECT record_yaml FROM profiles
		WHERE build_id = ? AND (compact = ? OR term = ?)
		ORDER BY (compact = ?) DESC, position ASC
		LIMIT 1
	`, buildID, identifier, identifier, identifier).Scan(&record)
	if err == sql.ErrNoRows {
		return capinfo.Profile{}, false, nil
	}
	if err != nil {
		return capinfo.Profile{}, false, errors.NewInternal(err)
	}

	one, err := capinfo.Load([]byte(record))
	if err != nil {
		return capinfo.Profile{}, false, err
	}
	if one.Len() != 1 {
		return capinfo.Profile{}, false, errors.NewInternal(fmt.Errorf("stored record for %q holds %d profiles", identifier, one.Len()))
	}
	return one.Profiles()[0], true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*Build, error) {
	var b Build
	if err := row.Scan(&b.ID, &b.Source, &b.Digest, &b.Profiles, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

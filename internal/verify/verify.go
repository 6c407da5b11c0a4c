// Package verify checks a capability dataset and summarizes which terminals
// share each $TERM value.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/errors"
)

// Report is the outcome of verifying one dataset.
type Report struct {
	Source   string              `json:"source"`
	OK       bool                `json:"ok"`
	Profiles int                 `json:"profiles"`
	Errors   []*errors.CapError  `json:"errors,omitempty"`
	Groups   []capinfo.TermGroup `json:"groups,omitempty"`
}

// File verifies the dataset at path. A file that cannot be read is reported
// like any other problem.
func File(path string) *Report {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Report{
			Source: path,
			Errors: []*errors.CapError{errors.NewInvalidRequest(fmt.Sprintf("cannot read dataset: %v", err))},
		}
	}
	return Data(path, data)
}

// Data verifies dataset bytes; source names them in the report.
func Data(source string, data []byte) *Report {
	db, err := capinfo.Load(data)
	if err != nil {
		return &Report{Source: source, Errors: errors.Flatten(err)}
	}
	return Database(source, db)
}

// Database summarizes an already valid database.
func Database(source string, db *capinfo.Database) *Report {
	r := &Report{Source: source, OK: true, Profiles: db.Len()}
	for _, term := range db.Terms() {
		g, _ := db.Group(term)
		r.Groups = append(r.Groups, g)
	}
	return r
}

// Write prints the report for people. A valid dataset lists each $TERM
// value followed by the terminals that set it:
//
//	xterm-256color:
//	 - xterm ("XTerm")
//	 - gnome-terminal ("GNOME Terminal")
//
// An invalid one lists every problem found.
func (r *Report) Write(w io.Writer) error {
	if !r.OK {
		if _, err := fmt.Fprintf(w, "%s: %d problem(s)\n", r.Source, len(r.Errors)); err != nil {
			return err
		}
		for _, e := range r.Errors {
			if _, err := fmt.Fprintf(w, "  %s\n", e.Error()); err != nil {
				return err
			}
		}
		return nil
	}

	for _, g := range r.Groups {
		if _, err := fmt.Fprintf(w, "%s:\n", g.Term); err != nil {
			return err
		}
		for _, m := range g.Members {
			if _, err := fmt.Fprintf(w, " - %s (%q)\n", m.Compact, m.Pretty); err != nil {
				return err
			}
		}
	}
	return nil
}

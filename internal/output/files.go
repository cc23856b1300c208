// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/talent-engine/internal/schema"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Artifact file names inside the output directory.
const (
	RowsFile     = "rows.csv"
	SidecarFile  = "decisions.json"
	ManifestFile = "manifest.yaml"
	RecordsFile  = "records.yaml"
)

// WriteCSV writes the header and rows of rs.
func WriteCSV(w io.Writer, rs types.RowSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return fmt.Errorf("row %d has %d values for %d columns", i+1, len(row), len(rs.Columns))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a row set and maps its header to canonical column names
// through the registry alias table. The column order of the file is kept;
// callers validate it against the registry separately.
func ReadCSV(r io.Reader, reg *schema.Registry) (types.RowSet, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.RowSet{}, &schema.Error{Kind: schema.KindMissing, Detail: "empty file"}
	}
	if err != nil {
		return types.RowSet{}, fmt.Errorf("reading header: %w", err)
	}
	cols, err := reg.Canonicalize(header)
	if err != nil {
		return types.RowSet{}, err
	}

	rs := types.RowSet{Columns: cols}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.RowSet{}, fmt.Errorf("reading row %d: %w", len(rs.Rows)+1, err)
		}
		rs.Rows = append(rs.Rows, types.OutputRow(rec))
	}
	return rs, nil
}

// SidecarEntry is one Person's audit record in the sidecar document.
type SidecarEntry struct {
	PersonID    string                   `json:"person_id"`
	IdentityKey string                   `json:"identity_key"`
	FullName    string                   `json:"full_name"`
	AltHandles  []string                 `json:"alt_handles,omitempty"`
	Rank        int                      `json:"rank"`
	Score       float64                  `json:"score"`
	Decision    *types.WatchlistDecision `json:"decision,omitempty"`
}

// Sidecar is the JSON audit document written next to rows.csv.
type Sidecar struct {
	RunID         string         `json:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	SchemaVersion string         `json:"schema_version"`
	ConfigVersion string         `json:"config_version,omitempty"`
	Entries       []SidecarEntry `json:"entries"`
}

// NewSidecar builds the sidecar in rank order.
func NewSidecar(in Input, schemaVersion, configVersion string) Sidecar {
	sc := Sidecar{
		RunID:         in.Run.RunID,
		GeneratedAt:   in.Run.GeneratedAt.UTC(),
		SchemaVersion: schemaVersion,
		ConfigVersion: configVersion,
		Entries:       make([]SidecarEntry, 0, len(in.Ranked)),
	}
	for _, r := range in.Ranked {
		e := SidecarEntry{
			PersonID:    r.Person.PersonID,
			IdentityKey: r.Person.IdentityKey,
			FullName:    r.Person.FullName,
			AltHandles:  r.Person.AltHandles,
			Rank:        r.Rank,
			Score:       r.Score,
		}
		if d, ok := in.Decisions[r.Person.PersonID]; ok {
			e.Decision = &d
		}
		sc.Entries = append(sc.Entries, e)
	}
	return sc
}

// WriteSidecar writes sc as indented JSON.
func WriteSidecar(w io.Writer, sc Sidecar) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	return nil
}

// Manifest summarizes a run for operators.
type Manifest struct {
	RunID          string            `yaml:"run_id"`
	Status         string            `yaml:"status"`
	StartedAt      time.Time         `yaml:"started_at"`
	FinishedAt     time.Time         `yaml:"finished_at"`
	SchemaVersion  string            `yaml:"schema_version"`
	ConfigVersion  string            `yaml:"config_version"`
	Records        int               `yaml:"records"`
	Persons        int               `yaml:"persons"`
	Dropped        int               `yaml:"dropped"`
	Conflicts      int               `yaml:"conflicts"`
	Rows           int               `yaml:"rows"`
	ScenarioYields map[string]int    `yaml:"scenario_yields"`
	ScenarioErrors map[string]string `yaml:"scenario_errors,omitempty"`
	Tiers          map[string]int    `yaml:"tiers,omitempty"`
	Files          []string          `yaml:"files"`
	Error          string            `yaml:"error,omitempty"`
}

// WriteManifest writes m as YAML.
func WriteManifest(w io.Writer, m Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}

// WriteFile creates dir/name and fills it with write. The file is written to
// a temporary name first and renamed, so a failed write never leaves a
// partial artifact behind.
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	st := NewStaging(dir)
	defer st.Discard()
	if err := st.Write(name, write); err != nil {
		return "", err
	}
	paths, err := st.Publish()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// Staging holds artifacts written to temporary files in the output
// directory until Publish renames them into place. A run that fails between
// Write and Publish calls Discard and leaves no artifact behind.
type Staging struct {
	dir   string
	files []stagedFile
}

type stagedFile struct {
	name string
	tmp  string
}

// NewStaging stages artifacts for dir.
func NewStaging(dir string) *Staging {
	return &Staging{dir: dir}
}

// Write fills a temporary file that Publish will rename to dir/name.
func (s *Staging) Write(name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	s.files = append(s.files, stagedFile{name: name, tmp: tmp})
	return nil
}

// Names returns the staged artifact names in write order.
func (s *Staging) Names() []string {
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.name
	}
	return out
}

// Publish renames every staged file into place and returns the final paths.
func (s *Staging) Publish() ([]string, error) {
	paths := make([]string, 0, len(s.files))
	for len(s.files) > 0 {
		f := s.files[0]
		path := filepath.Join(s.dir, f.name)
		if err := os.Rename(f.tmp, path); err != nil {
			return paths, fmt.Errorf("renaming %s: %w", f.name, err)
		}
		paths = append(paths, path)
		s.files = s.files[1:]
	}
	return paths, nil
}

// Discard removes staged files that were not published.
func (s *Staging) Discard() {
	for _, f := range s.files {
		os.Remove(f.tmp)
	}
	s.files = nil
}

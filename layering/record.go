package layering

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/dynmesh/dictionary"
	"github.com/sarchlab/dynmesh/modifier"
)

// Record is the persisted state of a layering modifier.
type Record struct {
	Name              string
	FaceZoneName      string
	MinLayerThickness float64
	OldLayerThickness float64
	MaxLayerThickness float64
}

// Record returns the persisted state of the modifier.
func (c *Comp) Record() Record {
	return Record{
		Name:              c.name,
		FaceZoneName:      c.zone.name,
		MinLayerThickness: c.minThickness,
		OldLayerThickness: c.oldThickness,
		MaxLayerThickness: c.maxThickness,
	}
}

// Write writes the record of the modifier, one value per line.
func (c *Comp) Write(w io.Writer) error {
	return WriteRecord(w, c.Record())
}

// WriteRecord writes a record, one value per line: name, zone, min, old,
// max.
func WriteRecord(w io.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n%s\n",
		r.Name,
		r.FaceZoneName,
		dictionary.FormatFloat(r.MinLayerThickness),
		dictionary.FormatFloat(r.OldLayerThickness),
		dictionary.FormatFloat(r.MaxLayerThickness),
	)

	return err
}

// ReadRecord reads a record written by WriteRecord. Blank lines are skipped.
func ReadRecord(r io.Reader) (Record, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() && len(lines) < 5 {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	err := scanner.Err()
	if err != nil {
		return Record{}, err
	}

	if len(lines) < 5 {
		return Record{}, fmt.Errorf("%w: record has %d of 5 lines",
			modifier.ErrConfig, len(lines))
	}

	rec := Record{Name: lines[0], FaceZoneName: lines[1]}

	values := []*float64{
		&rec.MinLayerThickness,
		&rec.OldLayerThickness,
		&rec.MaxLayerThickness,
	}
	for i, v := range values {
		*v, err = dictionary.ParseFloat(lines[2+i])
		if err != nil {
			return Record{}, fmt.Errorf("%w: record %s line %d: %w",
				modifier.ErrConfig, rec.Name, 3+i, err)
		}
	}

	return rec, nil
}

// Dict returns the modifier as a keyword dictionary.
func (c *Comp) Dict() *dictionary.Dict {
	d := dictionary.New(c.name).
		Set("type", TypeName).
		Set("faceZoneName", c.zone.name).
		SetFloat("minLayerThickness", c.minThickness).
		SetFloat("maxLayerThickness", c.maxThickness).
		SetFloat("oldLayerThickness", c.oldThickness).
		SetBool("active", c.active)

	if c.pinnedPointZone != "" {
		d.Set("pinnedPointZone", c.pinnedPointZone)
	}

	if c.debug {
		d.SetBool("debug", true)
	}

	return d
}

// WriteDict writes the modifier as a keyword dictionary.
func (c *Comp) WriteDict(w io.Writer) error {
	return dictionary.Write(w, c.Dict())
}

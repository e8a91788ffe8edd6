package pximage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/pxforest/perr"
	yaml "gopkg.in/yaml.v2"
)

// ManifestEntry is one (data-path, label-path) pair naming the two images a
// provider must decode and pair up into an Image.
type ManifestEntry struct {
	DataPath  string
	LabelPath string
}

// Manifest is an ordered list of ManifestEntry, the on-disk description of
// an image provider's index.
type Manifest []ManifestEntry

// ReadManifestCSV takes an io.Reader for a CSV stream with two columns
// (data path, label path) per row and returns the parsed Manifest.
//
// Adapted from the teacher's pkg/bio/csv.go reader, retargeted from
// feature-value rows to data/label path pairs.
func ReadManifestCSV(r io.Reader) (Manifest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	var m Manifest
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.InvalidInput, "reading manifest CSV line %d", line)
		}
		m = append(m, ManifestEntry{DataPath: row[0], LabelPath: row[1]})
	}
	return m, nil
}

// ReadManifestCSVFile opens path and parses it with ReadManifestCSV.
func ReadManifestCSVFile(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.IO, "opening manifest %s", path)
	}
	defer f.Close()
	m, err := ReadManifestCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

type yamlManifest struct {
	Images []struct {
		Data  string `yaml:"data"`
		Label string `yaml:"label"`
	} `yaml:"images"`
}

// ReadManifestYAML takes the bytes of a YAML document shaped as:
//
//	images:
//	  - data: path/to/data.png
//	    label: path/to/label.png
//
// and returns the parsed Manifest.
//
// Adapted from the teacher's feature/yaml/yaml.go and pkg/bio/yml.go
// readers, retargeted from feature metadata to image path pairs.
func ReadManifestYAML(data []byte) (Manifest, error) {
	var ym yamlManifest
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, perr.Wrap(err, perr.InvalidInput, "parsing manifest YAML")
	}
	m := make(Manifest, 0, len(ym.Images))
	for _, img := range ym.Images {
		m = append(m, ManifestEntry{DataPath: img.Data, LabelPath: img.Label})
	}
	return m, nil
}

// ReadManifestYAMLFile opens path and parses it with ReadManifestYAML.
func ReadManifestYAMLFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.IO, "reading manifest %s", path)
	}
	return ReadManifestYAML(data)
}

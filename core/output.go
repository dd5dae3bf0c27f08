package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputMode selects how a Printer renders metadata.
type OutputMode int

const (
	OutputText OutputMode = iota
	OutputJSON
	OutputYAML
)

// Printer handles display output for the view command.
type Printer struct {
	Mode   OutputMode
	Writer io.Writer
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter(mode OutputMode) *Printer {
	return &Printer{Mode: mode, Writer: os.Stdout}
}

type fieldDoc struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Category string `json:"category" yaml:"category"`
}

type metadataDoc struct {
	FilePath string     `json:"file" yaml:"file"`
	Format   string     `json:"format" yaml:"format"`
	Fields   []fieldDoc `json:"fields" yaml:"fields"`
}

// PrintMetadata renders m in the configured mode.
func (p *Printer) PrintMetadata(m *Metadata) error {
	switch p.Mode {
	case OutputJSON:
		b, err := json.MarshalIndent(toDoc(m), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.Writer, string(b))
		return err
	case OutputYAML:
		enc := yaml.NewEncoder(p.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(toDoc(m)); err != nil {
			return err
		}
		return enc.Close()
	default:
		p.printText(m)
		return nil
	}
}

func toDoc(m *Metadata) metadataDoc {
	doc := metadataDoc{FilePath: m.FilePath, Format: m.Format, Fields: []fieldDoc{}}
	for _, f := range m.Fields {
		doc.Fields = append(doc.Fields, fieldDoc{Key: f.Key, Value: f.Value, Category: f.Category})
	}
	return doc
}

func (p *Printer) printText(m *Metadata) {
	fmt.Fprintf(p.Writer, "File  : %s\n", m.FilePath)
	fmt.Fprintf(p.Writer, "Format: %s\n", m.Format)
	if len(m.Fields) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintln(p.Writer)

	// Group by category, keeping first-seen order.
	groups := make(map[string][]MetaField)
	var order []string
	for _, f := range m.Fields {
		if _, ok := groups[f.Category]; !ok {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	for _, cat := range order {
		fmt.Fprintf(p.Writer, "── %s ──\n", cat)
		for _, f := range groups[cat] {
			fmt.Fprintf(p.Writer, "  %-30s %s\n", f.Key+":", f.Value)
		}
		fmt.Fprintln(p.Writer)
	}
}

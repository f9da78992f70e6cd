package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/andyle182810/wpsec/apierror"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	jsonIndent     = "    "
	yamlIndent     = 2
	reportFileMode = 0o600
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", apierror.Newf(apierror.KindValidation, "unsupported format %q, use json or yaml", s)
	}
}

// EncodeReport renders a report document. JSON keeps the server's key order;
// YAML output has sorted keys.
func EncodeReport(document json.RawMessage, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var value any
		if err := json.Unmarshal(document, &value); err != nil {
			return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "report is not valid JSON")
		}

		var buf bytes.Buffer

		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(yamlIndent)

		if err := encoder.Encode(value); err != nil {
			return nil, fmt.Errorf("encode report as yaml: %w", err)
		}

		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("encode report as yaml: %w", err)
		}

		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, document, "", jsonIndent); err != nil {
			return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "report is not valid JSON")
		}

		buf.WriteByte('\n')

		return buf.Bytes(), nil
	}
}

// Report writes the document to path, or to the output writer when path is empty.
func (p *Printer) Report(document json.RawMessage, format Format, path string) error {
	data, err := EncodeReport(document, format)
	if err != nil {
		return err
	}

	if path == "" {
		_, err := p.out.Write(data)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		return nil
	}

	if err := os.WriteFile(path, data, reportFileMode); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	p.Success("Report saved to: %s", path)

	return nil
}

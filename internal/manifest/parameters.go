package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Asset is one image/code entry within a chapter. The css and code
// fields are untrusted user content; css must go through
// gallery.SafeCSS before being honoured, and code is only ever
// inserted verbatim into a document at the user's request.
type Asset struct {
	ImagePath string `json:"image_path"`
	CellType  string `json:"celltype"`
	CSS       string `json:"css"`
	Code      string `json:"code"`
}

// Chapter is a named, ordered list of assets
type Chapter struct {
	Name   string
	Assets []Asset
}

// Parameters is the per-gallery parameters document: chapters in the
// order they appear on the wire. That order defines display order, so
// the JSON object's key order is significant and a plain map would
// lose it.
type Parameters struct {
	Chapters []Chapter
}

// TotalAssets sums the asset entries across all chapters
func (p Parameters) TotalAssets() int {
	n := 0
	for _, c := range p.Chapters {
		n += len(c.Assets)
	}
	return n
}

// ParseParameters decodes a parameters document, preserving chapter order
func ParseParameters(data []byte) (Parameters, error) {

	var p Parameters

	if err := json.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("invalid gallery parameters: %w", err)
	}

	return p, nil
}

// UnmarshalJSON walks the object token by token so that chapter order
// survives the decode
func (p *Parameters) UnmarshalJSON(data []byte) error {

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	chapters := []Chapter{}

	for dec.More() {

		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected chapter name, got %v", tok)
		}

		var assets []Asset
		if err := dec.Decode(&assets); err != nil {
			return fmt.Errorf("chapter %q: %w", name, err)
		}

		chapters = append(chapters, Chapter{Name: name, Assets: assets})
	}

	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	p.Chapters = chapters

	return nil
}

// MarshalJSON writes chapters back out in order
func (p Parameters) MarshalJSON() ([]byte, error) {

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, c := range p.Chapters {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		assets, err := json.Marshal(c.Assets)
		if err != nil {
			return nil, err
		}
		buf.Write(assets)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

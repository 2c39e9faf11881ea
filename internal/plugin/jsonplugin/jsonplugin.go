// Package jsonplugin implements the JSON file plugin contract: reading
// and writing Mold and Config handles to a JSON document on disk. It is
// one concrete collaborator driving the core's operation surface
// (pkg/moldapi); the core itself never imports this package.
package jsonplugin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

// Plugin reads and writes Mold/Config trees as JSON documents.
type Plugin struct {
	log *slog.Logger
}

// New returns a Plugin that logs through log.
func New(log *slog.Logger) *Plugin {
	if log == nil {
		log = slog.Default()
	}
	return &Plugin{log: log}
}

// moldDoc and configDoc are the on-disk shapes. A section/keyval entry
// keeps the same field set in either root so a single decode path in
// decodeElements can build both mold-side and config-side nodes.
type moldDoc struct {
	Version string        `json:"version"`
	Docs    []string      `json:"docs,omitempty"`
	Entries []elementDoc  `json:"entries"`
}

type configDoc struct {
	Version string       `json:"version"`
	Origin  string       `json:"origin,omitempty"`
	Entries []elementDoc `json:"entries"`
}

type elementDoc struct {
	Kind         string        `json:"kind"` // "section" | "keyval"
	Name         string        `json:"name"`
	Introduced   string        `json:"introduced,omitempty"`
	Deprecated   string        `json:"deprecated,omitempty"`
	ValueType    string        `json:"value_type,omitempty"`
	Value        interface{}   `json:"value,omitempty"`
	Docs         []string      `json:"docs,omitempty"`
	Defaults     []defaultDoc  `json:"defaults,omitempty"`
	Restrictions []restrictionDoc `json:"restrictions,omitempty"`
	Entries      []elementDoc  `json:"entries,omitempty"`
}

type defaultDoc struct {
	Introduced string      `json:"introduced"`
	Value      interface{} `json:"value"`
}

type restrictionDoc struct {
	Kind       string  `json:"kind"`
	Introduced string  `json:"introduced,omitempty"`
	Deprecated string  `json:"deprecated,omitempty"`
	EnumValue  string  `json:"enum_value,omitempty"`
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`
	Numeric    float64 `json:"numeric,omitempty"`
}

// MoldRead decodes a mold JSON document from path and returns a
// finalized mold handle.
func (p *Plugin) MoldRead(path string) (*moldapi.Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonplugin: mold_read %s: %w", path, err)
	}
	var doc moldDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jsonplugin: mold_read %s: invalid json: %w", path, err)
	}

	mold, err := moldapi.MoldBegin()
	if err != nil {
		return nil, err
	}
	for _, text := range doc.Docs {
		if _, err := moldapi.AddDocumentation(mold, text); err != nil {
			_ = moldapi.Destroy(mold)
			return nil, err
		}
	}
	if err := decodeElements(mold, doc.Entries); err != nil {
		_ = moldapi.Destroy(mold)
		return nil, err
	}
	if err := moldapi.MoldFinalize(mold); err != nil {
		p.log.Error("mold_read finalize failed", "path", path, "error", err)
		return nil, err
	}
	return mold, nil
}

// MoldWrite encodes mold to path as JSON.
func (p *Plugin) MoldWrite(mold *moldapi.Context, path string) error {
	doc := moldDoc{Version: versionString(moldapi.MoldGetVersion(mold))}
	col, err := moldapi.GetElements(mold)
	if err != nil {
		return err
	}
	defer col.Finished()
	for {
		child, err := col.Next()
		if err != nil {
			break
		}
		ed, err := encodeElement(child)
		if err != nil {
			return err
		}
		doc.Entries = append(doc.Entries, ed)
	}
	return writeJSON(path, doc)
}

// ConfigRead decodes a config JSON document bound to mold.
func (p *Plugin) ConfigRead(path string, mold *moldapi.Context) (*moldapi.Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonplugin: config_read %s: %w", path, err)
	}
	var doc configDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jsonplugin: config_read %s: invalid json: %w", path, err)
	}

	cfg, err := moldapi.ConfigBegin(mold)
	if err != nil {
		return nil, err
	}
	if err := decodeElements(cfg, doc.Entries); err != nil {
		_ = moldapi.Destroy(cfg)
		return nil, err
	}
	if err := moldapi.ConfigFinalize(cfg); err != nil {
		p.log.Error("config_read finalize failed", "path", path, "error", err)
		return nil, err
	}
	return cfg, nil
}

// ConfigWrite encodes cfg to path as JSON.
func (p *Plugin) ConfigWrite(cfg *moldapi.Context, path string) error {
	version, _ := moldapi.ConfigGetVersion(cfg)
	doc := configDoc{Version: version.String()}
	col, err := moldapi.GetElements(cfg)
	if err != nil {
		return err
	}
	defer col.Finished()
	for {
		child, err := col.Next()
		if err != nil {
			break
		}
		ed, err := encodeElement(child)
		if err != nil {
			return err
		}
		doc.Entries = append(doc.Entries, ed)
	}
	return writeJSON(path, doc)
}

// ConfigEntries and MoldEntries list the top-level element names in a
// config/mold, the discovery half of the plugin contract.
func (p *Plugin) ConfigEntries(cfg *moldapi.Context) ([]string, error) {
	return elementNames(cfg)
}

func (p *Plugin) MoldEntries(mold *moldapi.Context) ([]string, error) {
	return elementNames(mold)
}

func elementNames(root *moldapi.Context) ([]string, error) {
	col, err := moldapi.GetElements(root)
	if err != nil {
		return nil, err
	}
	defer col.Finished()
	var names []string
	for {
		child, err := col.Next()
		if err != nil {
			break
		}
		name, err := moldapi.GetName(child)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ConfigQuery and MoldQuery resolve a dotted path within a config/mold.
func (p *Plugin) ConfigQuery(cfg *moldapi.Context, path string) (*moldapi.Context, error) {
	return moldapi.QueryResolveContext(cfg, path)
}

func (p *Plugin) MoldQuery(mold *moldapi.Context, path string) (*moldapi.Context, error) {
	return moldapi.QueryResolveContext(mold, path)
}

// MarshalConfig and MarshalMold encode cfg/mold to the same JSON bytes
// MoldWrite/ConfigWrite would put on disk, for collaborators (such as
// internal/plugin/k8sconfigmap) that store the document somewhere other
// than a local file.
func MarshalConfig(cfg *moldapi.Context) ([]byte, error) {
	version, _ := moldapi.ConfigGetVersion(cfg)
	doc := configDoc{Version: version.String()}
	if err := appendElements(cfg, &doc.Entries); err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func MarshalMold(mold *moldapi.Context) ([]byte, error) {
	doc := moldDoc{Version: versionString(moldapi.MoldGetVersion(mold))}
	if err := appendElements(mold, &doc.Entries); err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalConfig and UnmarshalMold decode bytes produced by
// MarshalConfig/MarshalMold (or MoldWrite/ConfigWrite) without touching
// the filesystem.
func UnmarshalConfig(data []byte, mold *moldapi.Context) (*moldapi.Context, error) {
	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonplugin: unmarshal config: invalid json: %w", err)
	}
	cfg, err := moldapi.ConfigBegin(mold)
	if err != nil {
		return nil, err
	}
	if err := decodeElements(cfg, doc.Entries); err != nil {
		_ = moldapi.Destroy(cfg)
		return nil, err
	}
	if err := moldapi.ConfigFinalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func UnmarshalMold(data []byte) (*moldapi.Context, error) {
	var doc moldDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonplugin: unmarshal mold: invalid json: %w", err)
	}
	mold, err := moldapi.MoldBegin()
	if err != nil {
		return nil, err
	}
	for _, text := range doc.Docs {
		if _, err := moldapi.AddDocumentation(mold, text); err != nil {
			_ = moldapi.Destroy(mold)
			return nil, err
		}
	}
	if err := decodeElements(mold, doc.Entries); err != nil {
		_ = moldapi.Destroy(mold)
		return nil, err
	}
	if err := moldapi.MoldFinalize(mold); err != nil {
		return nil, err
	}
	return mold, nil
}

func appendElements(root *moldapi.Context, entries *[]elementDoc) error {
	col, err := moldapi.GetElements(root)
	if err != nil {
		return err
	}
	defer col.Finished()
	for {
		child, err := col.Next()
		if err != nil {
			break
		}
		ed, err := encodeElement(child)
		if err != nil {
			return err
		}
		*entries = append(*entries, ed)
	}
	return nil
}

func versionString(v moldapi.Version, err error) string {
	if err != nil {
		return moldapi.Version1_0.String()
	}
	return v.String()
}

func writeJSON(path string, doc interface{}) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonplugin: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("jsonplugin: write %s: %w", path, err)
	}
	return nil
}

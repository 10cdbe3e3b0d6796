package claimhooks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DocumentOption configures an AppDataDocument
type DocumentOption func(*AppDataDocument)

// WithEnvironment sets the optional environment field
func WithEnvironment(environment string) DocumentOption {
	return func(d *AppDataDocument) {
		d.Environment = environment
	}
}

// NewAppDataDocument creates a document carrying the given hook lists.
// Nil lists are stored as empty lists so both always serialize as arrays.
func NewAppDataDocument(appCode string, pre []Hook, post []Hook, opts ...DocumentOption) AppDataDocument {
	if pre == nil {
		pre = []Hook{}
	}
	if post == nil {
		post = []Hook{}
	}

	doc := AppDataDocument{
		AppCode: appCode,
		Metadata: Metadata{
			Hooks: &OrderHooks{
				Version: HooksVersion,
				Pre:     pre,
				Post:    post,
			},
		},
		Version: AppDataVersion,
	}

	for _, opt := range opts {
		opt(&doc)
	}
	return doc
}

// Serialize renders the document as deterministic JSON: object keys sorted
// at every level, no whitespace, and no HTML escaping.
func (d AppDataDocument) Serialize() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal app data: %w", err)
	}
	return CanonicalizeJSON(raw)
}

// CanonicalizeJSON re-encodes arbitrary JSON in the deterministic form used
// by Serialize. Numbers are preserved verbatim.
func CanonicalizeJSON(raw []byte) (string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var generic interface{}
	if err := decoder.Decode(&generic); err != nil {
		return "", fmt.Errorf("failed to decode app data: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(generic); err != nil {
		return "", fmt.Errorf("failed to encode app data: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ComputeAppDataHash returns the content hash of a serialized document:
// 0x-prefixed keccak256 of its UTF-8 bytes.
func ComputeAppDataHash(data string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(data)))
}

// NewAppData serializes and hashes a document
func NewAppData(doc AppDataDocument) (AppData, error) {
	data, err := doc.Serialize()
	if err != nil {
		return AppData{}, err
	}
	return AppData{
		Hash: ComputeAppDataHash(data),
		Data: data,
	}, nil
}

// ParseAppDataDocument decodes a serialized document
func ParseAppDataDocument(data string) (AppDataDocument, error) {
	var doc AppDataDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return AppDataDocument{}, fmt.Errorf("failed to parse app data: %w", err)
	}
	return doc, nil
}

// internal/compiler/model.go

package compiler

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/rs/zerolog/log"

	"rgehrsitz/semrex/internal/dictionary"
)

// ModelVersion is the version of the encoded model format.
const ModelVersion uint16 = 1

var modelMagic = [4]byte{'R', 'E', 'X', 'M'}

// ErrChecksum is returned when an encoded model body does not match its
// header checksum.
var ErrChecksum = errors.New("model checksum mismatch")

// Model is a pre-compiled dictionary and rule set that another engine can
// adopt without recompiling.
type Model struct {
	Terms dictionary.Snapshot `json:"terms"`
	Rules RuleSet             `json:"rules"`
}

// Header precedes the JSON body of an encoded model.
type Header struct {
	Magic    [4]byte
	Version  uint16 // Version of the model format
	Checksum uint32 // CRC-32 (IEEE) of the body
	NumTerms uint32
	NumRules uint32
	BodySize uint32
}

// EncodeModel writes m as a header followed by its JSON body.
func EncodeModel(w io.Writer, m *Model) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling model: %w", err)
	}

	numTerms := len(m.Terms.Numbers)
	for l, packed := range m.Terms.Texts {
		if l > 0 {
			numTerms += len([]rune(packed)) / l
		}
	}
	header := Header{
		Magic:    modelMagic,
		Version:  ModelVersion,
		Checksum: crc32.ChecksumIEEE(body),
		NumTerms: uint32(numTerms),
		NumRules: uint32(len(m.Rules)),
		BodySize: uint32(len(body)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("error writing model header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("error writing model body: %w", err)
	}
	return nil
}

// DecodeModel reads a model written by EncodeModel and verifies it.
func DecodeModel(r io.Reader) (*Model, error) {
	var header Header
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("error reading model header: %w", err)
	}
	if header.Magic != modelMagic {
		return nil, fmt.Errorf("not a compiled model")
	}
	if header.Version != ModelVersion {
		return nil, fmt.Errorf("unsupported model version %d", header.Version)
	}
	log.Debug().
		Uint16("Version", header.Version).
		Uint32("Checksum", header.Checksum).
		Uint32("NumTerms", header.NumTerms).
		Uint32("NumRules", header.NumRules).
		Msg("Model header details")

	body, err := io.ReadAll(io.LimitReader(r, int64(header.BodySize)))
	if err != nil {
		return nil, fmt.Errorf("error reading model body: %w", err)
	}
	if len(body) != int(header.BodySize) {
		return nil, fmt.Errorf("error reading model body: got %d of %d bytes", len(body), header.BodySize)
	}
	if crc32.ChecksumIEEE(body) != header.Checksum {
		return nil, ErrChecksum
	}

	var m Model
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("error decoding model body: %w", err)
	}
	if len(m.Rules) != int(header.NumRules) {
		return nil, fmt.Errorf("header declares %d rules, body holds %d", header.NumRules, len(m.Rules))
	}

	dict, err := m.Dictionary()
	if err != nil {
		return nil, err
	}
	if dict.Len() != int(header.NumTerms) {
		return nil, fmt.Errorf("header declares %d terms, body holds %d", header.NumTerms, dict.Len())
	}
	return &m, nil
}

// Dictionary rebuilds the model's dictionary and checks the rule set
// against it.
func (m *Model) Dictionary() (*dictionary.Dictionary, error) {
	dict, err := dictionary.FromSnapshot(m.Terms)
	if err != nil {
		return nil, fmt.Errorf("invalid model terms: %w", err)
	}
	if err := m.Rules.Verify(dict); err != nil {
		return nil, fmt.Errorf("invalid model rules: %w", err)
	}
	return dict, nil
}

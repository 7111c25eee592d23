package dump

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"

	"dexgraph/internal/core"
)

// Report is the structured form of a dump, written as JSON for regression
// testing and as CBOR for snapshots.
type Report struct {
	Digest     string        `json:"digest" cbor:"1,keyasint"`
	ClassCount int           `json:"class_count" cbor:"2,keyasint"`
	Classes    []ClassReport `json:"classes" cbor:"3,keyasint"`
}

// ClassReport describes one class.
type ClassReport struct {
	Name       string         `json:"name" cbor:"1,keyasint"`
	Base       string         `json:"base,omitempty" cbor:"2,keyasint,omitempty"`
	Interfaces []string       `json:"interfaces,omitempty" cbor:"3,keyasint,omitempty"`
	Flags      string         `json:"flags,omitempty" cbor:"4,keyasint,omitempty"`
	Framework  bool           `json:"framework,omitempty" cbor:"5,keyasint,omitempty"`
	Methods    []MethodReport `json:"methods" cbor:"6,keyasint"`
}

// MethodReport describes one method and its body.
type MethodReport struct {
	Signature    string   `json:"signature" cbor:"1,keyasint"`
	Return       string   `json:"return" cbor:"2,keyasint"`
	Flags        string   `json:"flags,omitempty" cbor:"3,keyasint,omitempty"`
	Instructions []string `json:"instructions,omitempty" cbor:"4,keyasint,omitempty"`
	Tries        []string `json:"tries,omitempty" cbor:"5,keyasint,omitempty"`
}

// Build collects the report for scope. digest identifies the input.
func Build(scope *core.Scope, digest string, opts Options) Report {
	r := Report{Digest: digest, Classes: []ClassReport{}}
	for _, c := range Classes(scope, opts) {
		cr := ClassReport{
			Name:      c.Name(),
			Flags:     c.AccessFlags().String(),
			Framework: c.IsFramework(),
			Methods:   []MethodReport{},
		}
		if b := c.BaseType(); b != nil {
			cr.Base = b.Name()
		}
		for _, i := range c.Interfaces() {
			cr.Interfaces = append(cr.Interfaces, i.Name())
		}
		for _, m := range Methods(c) {
			mr := MethodReport{
				Signature: sanitize(m.String()),
				Return:    m.ReturnType().Name(),
				Flags:     m.AccessFlags().String(),
			}
			for _, in := range m.Instructions() {
				mr.Instructions = append(mr.Instructions, sanitize(in.String()))
			}
			for _, tb := range m.TryBlocks() {
				mr.Tries = append(mr.Tries, TryString(tb))
			}
			cr.Methods = append(cr.Methods, mr)
		}
		r.Classes = append(r.Classes, cr)
	}
	r.ClassCount = len(r.Classes)
	return r
}

// JSON writes r indented by two spaces.
func JSON(w io.Writer, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Snapshot writes the canonical CBOR encoding of r.
func Snapshot(w io.Writer, r Report) error {
	data, err := encMode.Marshal(r)
	if err != nil {
		return fmt.Errorf("dump: marshal snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadSnapshot decodes a snapshot written by Snapshot.
func ReadSnapshot(rd io.Reader) (Report, error) {
	var r Report
	data, err := io.ReadAll(rd)
	if err != nil {
		return r, err
	}
	if err := cbor.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("dump: unmarshal snapshot: %w", err)
	}
	return r, nil
}

// FileDigest returns the hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to calculate digest: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// sanitize keeps string constants with broken encodings printable.
func sanitize(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// Package csvx renders deterministic CSV documents: fixed column order,
// caller-supplied row order, LF line endings, and a SHA-256 content hash
// that excludes the UTF-8 BOM prepended for spreadsheet compatibility.
package csvx

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"

	perr "brigade/internal/platform/errors"

	"golang.org/x/text/unicode/norm"
)

// BOM is the UTF-8 byte order mark Excel expects on CSV files
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is one export: a header and pre-ordered rows.
// Row order is the caller's contract; Encode never re-sorts
type Document struct {
	Header []string
	Rows   [][]string
}

// Result is the rendered document. Body starts with the BOM;
// Hash covers only the bytes after it
type Result struct {
	Body []byte
	Hash string
}

// Encode renders the document. Every row must match the header width.
// The hash is SHA-256 over the LF-normalized body without the BOM
func (d Document) Encode() (Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(canonical(d.Header)); err != nil {
		return Result{}, perr.Internalf("write csv header: %v", err)
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Header) {
			return Result{}, perr.Internalf("csv row %d has %d fields, header has %d", i, len(row), len(d.Header))
		}
		if err := w.Write(canonical(row)); err != nil {
			return Result{}, perr.Internalf("write csv row %d: %v", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, perr.Internalf("flush csv: %v", err)
	}

	body := normalizeLF(buf.Bytes())
	sum := sha256.Sum256(body)

	out := make([]byte, 0, len(BOM)+len(body))
	out = append(out, BOM...)
	out = append(out, body...)
	return Result{Body: out, Hash: hex.EncodeToString(sum[:])}, nil
}

func normalizeLF(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
}

// canonical NFC-normalizes every field so equivalent Unicode input always
// hashes to the same bytes
func canonical(row []string) []string {
	out := make([]string, len(row))
	for i, f := range row {
		if norm.NFC.IsNormalString(f) {
			out[i] = f
			continue
		}
		out[i] = norm.NFC.String(f)
	}
	return out
}

// Time formats a timestamp as ISO-8601 with zone info, or empty for nil
func Time(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// TimeVal formats a non-optional timestamp
func TimeVal(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Bool renders true/false
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

// Int renders a base-10 integer
func Int(n int) string {
	return strconv.Itoa(n)
}

// Float renders a float with minimal digits
func Float(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

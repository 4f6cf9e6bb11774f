package pdfextract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmpty     = errors.New("pdf is empty")
	ErrNotPDF    = errors.New("file is not a pdf")
	ErrNoPages   = errors.New("pdf has no pages")
	pdfSignature = []byte("%PDF-")
)

// Info describes a parsed PDF.
type Info struct {
	Pages int
}

// Inspect checks that b is a readable PDF and reports its page count.
func Inspect(b []byte) (info Info, err error) {
	if len(b) == 0 {
		return Info{}, ErrEmpty
	}
	if !bytes.HasPrefix(bytes.TrimLeft(b, "\r\n\t "), pdfSignature) {
		return Info{}, ErrNotPDF
	}

	// The reader panics on some truncated xref tables.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	pages := reader.NumPage()
	if pages == 0 {
		return Info{}, ErrNoPages
	}
	return Info{Pages: pages}, nil
}

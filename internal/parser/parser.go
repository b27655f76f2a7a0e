// Package parser converts uploaded documents into blank-line-delimited text
// chunks, the same shape the notes corpus is split into. It never touches
// the filesystem: uploads arrive as raw bytes.
package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"history-tutor/internal/notes"
)

// Parse extracts text chunks from an uploaded document, dispatching on the
// filename extension. Unsupported formats return an error; callers convert
// that into a user-facing failure message.
func Parse(data []byte, filename string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return parseText(data)
	case ".md":
		return parseMarkdown(data)
	case ".pdf":
		return parsePDF(data)
	case ".docx":
		return parseDOCX(data)
	case ".xlsx":
		return parseXLSX(data)
	case ".ods", ".xlsm":
		return parseSpreadsheet(data)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func parseText(data []byte) ([]string, error) {
	return notes.SplitParagraphs(string(data)), nil
}

// parseMarkdown walks the goldmark AST and emits one chunk per top-level
// block, so markdown structure maps onto the paragraph chunk shape.
func parseMarkdown(data []byte) ([]string, error) {
	root := goldmark.New().Parser().Parse(gtext.NewReader(data))

	var chunks []string
	for block := root.FirstChild(); block != nil; block = block.NextSibling() {
		var b strings.Builder
		err := gast.Walk(block, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
			if !entering {
				return gast.WalkContinue, nil
			}
			switch t := n.(type) {
			case *gast.Text:
				b.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteString(" ")
				}
			case *gast.ListItem:
				b.WriteString(" ")
			}
			return gast.WalkContinue, nil
		})
		if err != nil {
			return nil, err
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			chunks = append(chunks, text)
		}
	}
	return chunks, nil
}

func parsePDF(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var chunks []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, notes.SplitParagraphs(pageText)...)
	}
	return chunks, nil
}

func parseDOCX(data []byte) ([]string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// GetContent returns document.xml; text lives in <w:t> runs.
	content := r.Editable().GetContent()
	var chunks []string
	for _, para := range strings.Split(content, "</w:p>") {
		text := strings.TrimSpace(extractTagText(para, "<w:t"))
		if text != "" {
			chunks = append(chunks, text)
		}
	}
	return chunks, nil
}

func parseXLSX(data []byte) ([]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}

	var chunks []string
	for _, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if s := strings.TrimSpace(text.String()); s != fmt.Sprintf("Sheet: %s", sheet.Name) {
			chunks = append(chunks, s)
		}
	}
	return chunks, nil
}

func parseSpreadsheet(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		empty := true
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
				if strings.TrimSpace(cell) != "" {
					empty = false
				}
			}
			text.WriteString("\n")
		}
		if !empty {
			chunks = append(chunks, strings.TrimSpace(text.String()))
		}
	}
	return chunks, nil
}

// extractTagText pulls the text content of every occurrence of an XML tag
// (e.g. "<w:t") out of a fragment, space-joined.
func extractTagText(fragment, openTag string) string {
	var text strings.Builder
	rest := fragment
	for {
		start := strings.Index(rest, openTag)
		if start < 0 {
			break
		}
		rest = rest[start+len(openTag):]
		gt := strings.Index(rest, ">")
		if gt < 0 {
			break
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, "<")
		if end < 0 {
			break
		}
		if chunk := rest[:end]; chunk != "" {
			text.WriteString(chunk)
			text.WriteString(" ")
		}
		rest = rest[end:]
	}
	return strings.TrimSpace(text.String())
}

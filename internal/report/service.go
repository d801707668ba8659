package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"triage-assistant/internal/triage"
)

// defaultFontPaths covers the usual DejaVuSans locations on Alpine and
// Debian based images.
var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Generator renders triage results into PDF documents. Documents are built
// entirely in memory so there is no temporary file to clean up.
type Generator struct {
	fontPaths []string
}

func NewGenerator(fontPaths ...string) *Generator {
	if len(fontPaths) == 0 {
		fontPaths = defaultFontPaths
	}
	return &Generator{fontPaths: fontPaths}
}

// Render produces the doctor-facing summary document: patient, issue,
// triage level and advice.
func (g *Generator) Render(res *triage.Result) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range g.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Triage Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", res.UpdatedAt.Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Patient: %s", res.Patient))
	pdf.Br(15)
	g.writeWrapped(&pdf, fmt.Sprintf("Issue: %s", res.Issue))
	pdf.Br(5)
	pdf.Cell(nil, fmt.Sprintf("Triage Level: %s", res.Level))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Advice:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	advice := res.Advice
	if advice == "" {
		advice = "No advice recorded yet."
	}
	g.writeWrapped(&pdf, advice)

	pdf.SetY(270)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated %s", time.Now().Format("02.01.2006 15:04")))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeWrapped(pdf *gopdf.GoPdf, text string) {
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			continue
		}
		lines, _ := pdf.SplitText(paragraph, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
}

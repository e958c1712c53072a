package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

const (
	certificateWidth  = 1600
	certificateHeight = 1131
)

var (
	certificatePaper = color.NRGBA{R: 0xFB, G: 0xF7, B: 0xEC, A: 0xFF}
	certificateInk   = color.NRGBA{R: 0x22, G: 0x2B, B: 0x3A, A: 0xFF}
	certificateGold  = color.NRGBA{R: 0xB0, G: 0x8D, B: 0x3C, A: 0xFF}
	certificateVoid  = color.NRGBA{R: 0xC0, G: 0x1F, B: 0x2E, A: 0x70}
)

// CertificateDocument is everything printed on a certificate.
type CertificateDocument struct {
	SchoolName  string
	Title       string
	StudentName string
	GradeName   string
	Number      string
	IssueDate   time.Time
	Status      string
}

type CertificateRenderer interface {
	Render(doc CertificateDocument) (bytes.Buffer, error)
}

type certificateRenderer struct {
	log       *logger.Logger
	titleFace font.Face
	nameFace  font.Face
	bodyFace  font.Face
	smallFace font.Face
}

// NewCertificateRenderer loads fontPath for every face, or the bundled Go
// fonts when fontPath is empty. titleSize scales the whole layout.
func NewCertificateRenderer(log *logger.Logger, fontPath string, titleSize float64) (CertificateRenderer, error) {
	serviceLog := log.With("service", "CertificateRenderer")
	if titleSize <= 0 {
		titleSize = 42
	}

	regular, bold := goregular.TTF, gobold.TTF
	if p := strings.TrimSpace(fontPath); p != "" {
		serviceLog.Info("Loading certificate font", "font", p)
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		regular, bold = raw, raw
	}

	boldFont, err := truetype.Parse(bold)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	regularFont, err := truetype.Parse(regular)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}

	return &certificateRenderer{
		log:       serviceLog,
		titleFace: newFace(boldFont, titleSize*1.4),
		nameFace:  newFace(boldFont, titleSize*1.2),
		bodyFace:  newFace(regularFont, titleSize*0.7),
		smallFace: newFace(regularFont, titleSize*0.45),
	}, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *certificateRenderer) Render(doc CertificateDocument) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if strings.TrimSpace(doc.Number) == "" {
		return buf, fmt.Errorf("certificate number required")
	}
	w, h := float64(certificateWidth), float64(certificateHeight)
	cx := w / 2

	dc := gg.NewContext(certificateWidth, certificateHeight)
	dc.SetColor(certificatePaper)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	// Double frame
	dc.SetColor(certificateGold)
	dc.SetLineWidth(10)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(62, 62, w-124, h-124)
	dc.Stroke()

	dc.SetColor(certificateInk)
	if name := strings.TrimSpace(doc.SchoolName); name != "" {
		dc.SetFontFace(r.bodyFace)
		dc.DrawStringAnchored(strings.ToUpper(name), cx, 170, 0.5, 0.5)
	}

	dc.SetFontFace(r.titleFace)
	dc.DrawStringWrapped(doc.Title, cx, 300, 0.5, 0.5, w-300, 1.2, gg.AlignCenter)

	dc.SetFontFace(r.bodyFace)
	dc.DrawStringAnchored("This certifies that", cx, 450, 0.5, 0.5)

	dc.SetFontFace(r.nameFace)
	dc.DrawStringAnchored(doc.StudentName, cx, 560, 0.5, 0.5)
	dc.SetColor(certificateGold)
	dc.SetLineWidth(3)
	dc.DrawLine(cx-420, 610, cx+420, 610)
	dc.Stroke()

	dc.SetColor(certificateInk)
	dc.SetFontFace(r.bodyFace)
	if g := strings.TrimSpace(doc.GradeName); g != "" {
		dc.DrawStringAnchored("has successfully completed "+g, cx, 690, 0.5, 0.5)
	}

	dc.SetFontFace(r.smallFace)
	dc.DrawStringAnchored("Issued "+doc.IssueDate.Format("2 January 2006"), 180, h-150, 0, 0.5)
	dc.DrawStringAnchored("No. "+doc.Number, w-180, h-150, 1, 0.5)

	if doc.Status == school.CertificateRevoked || doc.Status == school.CertificateReplaced {
		dc.Push()
		dc.RotateAbout(gg.Radians(-20), cx, h/2)
		dc.SetColor(certificateVoid)
		dc.SetFontFace(r.titleFace)
		dc.DrawStringAnchored(strings.ToUpper(doc.Status), cx, h/2, 0.5, 0.5)
		dc.Pop()
	}

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

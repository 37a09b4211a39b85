package printing

import (
	"github.com/gcci/certgen/internal/domain/certificate"
)

// A4 page size in points
const (
	PageWidth  = 595.0
	PageHeight = 842.0
)

// Font sizes and line height in points
const (
	headingSize = 9.0
	bodySize    = 8.0
	warningSize = 10.0
	lineHeight  = 10.0
)

// Block is a text block anchored at the baseline of its first line,
// measured in points from the bottom-left corner of the page.
type Block struct {
	X, Y float64
	Text string
	Bold bool
	Size float64
}

// Left returns the CSS left offset in points.
func (b Block) Left() float64 {
	return b.X
}

// Top returns the CSS top offset of the block's line box in points.
func (b Block) Top() float64 {
	size := b.Size
	if size == 0 {
		size = bodySize
	}
	// baseline sits roughly 80% down the glyph box, centred in the line box
	baseline := (lineHeight-size)/2 + size*0.8
	return PageHeight - b.Y - baseline
}

func heading(x, y float64, text string) Block {
	return Block{X: x, Y: y, Text: text, Bold: true, Size: headingSize}
}

func body(x, y float64, text string) Block {
	return Block{X: x, Y: y, Text: text, Size: bodySize}
}

// Static texts
const (
	certificationText = "It is hereby certified, on the basis of control carried out,\n" +
		"that the declaration by the exporter is correct."
	declarationText = "The undersigned hereby declares by the above \ndetails and statements are correct\n" +
		"that all the goods were produced in india and that \nthey comply with the origin requirements for \nexport to"
)

// staticBlocks are the labels printed on every certificate.
var staticBlocks = []Block{
	body(30, 740, "1. Goods consigned from\n(Exporter's name, address, country)"),
	heading(295, 740, "Certificate of Origin No."),
	body(30, 585, "2. Goods consigned to\n(Consignee's name, address, country)"),
	body(30, 480, "3. Means of transport and route\n(as far as known)"),
	heading(300, 480, "4. For official use"),
	body(30, 385, "5. Item number"),
	body(125, 385, "6. Marks and numbers\nof packages"),
	body(210, 385, "7. Number and kind \nof packages,\ndescription of goods"),
	body(300, 385, "8. Origin criteria"),
	body(390, 385, "9. Gross weight or\nother quantity"),
	body(482, 385, "10. Number and date\nof invoices"),
	heading(270, 330, "H.S. CODE"),
	heading(30, 150, "11. Certification"),
	body(30, 135, certificationText),
	heading(300, 150, "12. Declaration by the exporter"),
	body(300, 130, declarationText),
}

// CertificateBlocks lays out the static labels and the field values of d.
func CertificateBlocks(d certificate.Data) []Block {
	blocks := make([]Block, 0, len(staticBlocks)+len(certificate.Fields)+1)
	blocks = append(blocks, staticBlocks...)
	blocks = append(blocks,
		body(30, 720, d.ExporterNameAddress),
		body(295, 730, d.CertificateNumber),
		body(30, 560, d.ConsigneeNameAddress),
		body(30, 460, d.TransportDetails),
		body(300, 470, d.OfficialUse),
		body(30, 300, d.ItemNumber),
		body(125, 300, d.PackageMarks),
		body(210, 300, d.PackageDescription),
		body(300, 300, d.OriginCriteria),
		body(390, 300, d.GrossWeight),
		body(482, 300, d.InvoiceNumberDate),
		body(270, 320, d.HSCode),
		body(30, 100, d.CertificatePlaceDate),
		body(30, 80, d.CertificateSignature),
		body(300, 140, d.ExporterDeclarationPlaceDate),
		body(300, 55, d.ExporterSignature),
		body(300, 70, "...exports to: "+d.ImportingCountry),
	)
	return blocks
}

// missingBackgroundBlock is drawn when the configured background is absent.
func missingBackgroundBlock(name string) Block {
	return Block{X: 100, Y: 800, Text: "Missing background image: " + name, Bold: true, Size: warningSize}
}

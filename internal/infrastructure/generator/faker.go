// Package generator produces synthetic certificate records and report scores.
package generator

import (
	"fmt"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gcci/certgen/internal/domain/certificate"
)

const dateLayout = "2006-01-02"

// CertificateFaker builds plausible certificate data from a gofakeit source.
type CertificateFaker struct {
	faker *gofakeit.Faker
}

// NewCertificateFaker creates a faker. A zero seed picks a random one.
func NewCertificateFaker(seed uint64) *CertificateFaker {
	return &CertificateFaker{faker: gofakeit.New(seed)}
}

// Generate returns one fully populated certificate.
func (g *CertificateFaker) Generate() certificate.Data {
	f := g.faker
	return certificate.Data{
		ExporterNameAddress:          g.party(),
		CertificateNumber:            fmt.Sprintf("GCCI-%05d", f.Number(0, 99999)),
		ConsigneeNameAddress:         g.party(),
		TransportDetails:             "Transported by " + f.Word(),
		OfficialUse:                  "Verified by GCCI",
		ItemNumber:                   strconv.Itoa(f.Number(1, 999)),
		PackageMarks:                 fmt.Sprintf("Mark-%04d", f.Number(0, 9999)),
		PackageDescription:           truncate(f.Sentence(8), 60),
		OriginCriteria:               "Made in India",
		GrossWeight:                  fmt.Sprintf("%d kg", f.Number(100, 1000)),
		InvoiceNumberDate:            fmt.Sprintf("INV-%04d dated %s", f.Number(0, 9999), f.Date().Format(dateLayout)),
		HSCode:                       fmt.Sprintf("%06d", f.Number(0, 999999)),
		CertificatePlaceDate:         f.City() + ", " + f.Date().Format(dateLayout),
		CertificateSignature:         f.Name(),
		ExporterDeclarationPlaceDate: f.City() + ", " + f.Date().Format(dateLayout),
		ExporterSignature:            f.Name(),
		ImportingCountry:             f.Country(),
	}
}

// party is a company name with its postal address on the next line.
func (g *CertificateFaker) party() string {
	return g.faker.Company() + "\n" + g.faker.Address().Address
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

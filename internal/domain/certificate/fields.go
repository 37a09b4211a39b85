// Package certificate holds the Certificate of Origin field table and the
// two schemas (batch submission and API request) validated against it.
package certificate

// Field describes one named string field of a certificate.
type Field struct {
	Name     string
	Label    string
	Required bool   // required by the batch schema only
	Rule     string // go-playground/validator tag applied to the value
}

// Field names
const (
	FieldExporterNameAddress          = "exporter_name_address"
	FieldCertificateNumber            = "certificate_number"
	FieldConsigneeNameAddress         = "consignee_name_address"
	FieldTransportDetails             = "transport_details"
	FieldOfficialUse                  = "official_use"
	FieldItemNumber                   = "item_number"
	FieldPackageMarks                 = "package_marks"
	FieldPackageDescription           = "package_description"
	FieldOriginCriteria               = "origin_criteria"
	FieldGrossWeight                  = "gross_weight"
	FieldInvoiceNumberDate            = "invoice_number_date"
	FieldHSCode                       = "hs_code"
	FieldCertificatePlaceDate         = "certificate_place_date"
	FieldCertificateSignature         = "certificate_signature"
	FieldExporterDeclarationPlaceDate = "exporter_declaration_place_date"
	FieldExporterSignature            = "exporter_signature"
	FieldImportingCountry             = "importing_country"
)

// Fields is the shared field-constraint table, in render order.
var Fields = []Field{
	{Name: FieldExporterNameAddress, Label: "Goods consigned from", Required: true, Rule: "max=600"},
	{Name: FieldCertificateNumber, Label: "Certificate of Origin No.", Required: true, Rule: "max=64"},
	{Name: FieldConsigneeNameAddress, Label: "Goods consigned to", Required: true, Rule: "max=600"},
	{Name: FieldTransportDetails, Label: "Means of transport and route", Rule: "max=300"},
	{Name: FieldOfficialUse, Label: "For official use", Rule: "max=200"},
	{Name: FieldItemNumber, Label: "Item number", Rule: "max=32"},
	{Name: FieldPackageMarks, Label: "Marks and numbers of packages", Rule: "max=200"},
	{Name: FieldPackageDescription, Label: "Number and kind of packages", Rule: "max=600"},
	{Name: FieldOriginCriteria, Label: "Origin criteria", Rule: "max=100"},
	{Name: FieldGrossWeight, Label: "Gross weight or other quantity", Rule: "max=64"},
	{Name: FieldInvoiceNumberDate, Label: "Number and date of invoices", Rule: "max=200"},
	{Name: FieldHSCode, Label: "H.S. Code", Rule: "max=16"},
	{Name: FieldCertificatePlaceDate, Label: "Certification place and date", Rule: "max=200"},
	{Name: FieldCertificateSignature, Label: "Certification signature", Rule: "max=120"},
	{Name: FieldExporterDeclarationPlaceDate, Label: "Declaration place and date", Rule: "max=200"},
	{Name: FieldExporterSignature, Label: "Exporter signature", Rule: "max=120"},
	{Name: FieldImportingCountry, Label: "Importing country", Rule: "max=100"},
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(Fields))
	for i, f := range Fields {
		m[f.Name] = i
	}
	return m
}()

// Lookup returns the field definition for name.
func Lookup(name string) (Field, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return Fields[i], true
}

// RequiredFields returns the names of the fields the batch schema requires.
func RequiredFields() []string {
	var names []string
	for _, f := range Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

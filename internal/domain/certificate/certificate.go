package certificate

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Data is a complete set of certificate field values. Absent fields are "".
type Data struct {
	ExporterNameAddress          string `json:"exporter_name_address"`
	CertificateNumber            string `json:"certificate_number"`
	ConsigneeNameAddress         string `json:"consignee_name_address"`
	TransportDetails             string `json:"transport_details"`
	OfficialUse                  string `json:"official_use"`
	ItemNumber                   string `json:"item_number"`
	PackageMarks                 string `json:"package_marks"`
	PackageDescription           string `json:"package_description"`
	OriginCriteria               string `json:"origin_criteria"`
	GrossWeight                  string `json:"gross_weight"`
	InvoiceNumberDate            string `json:"invoice_number_date"`
	HSCode                       string `json:"hs_code"`
	CertificatePlaceDate         string `json:"certificate_place_date"`
	CertificateSignature         string `json:"certificate_signature"`
	ExporterDeclarationPlaceDate string `json:"exporter_declaration_place_date"`
	ExporterSignature            string `json:"exporter_signature"`
	ImportingCountry             string `json:"importing_country"`
}

// FieldValue is a single named value, used where field order matters.
type FieldValue struct {
	Name  string
	Value string
}

var validate = validator.New()

// ref returns a pointer to the struct field backing name, or nil.
func (d *Data) ref(name string) *string {
	switch name {
	case FieldExporterNameAddress:
		return &d.ExporterNameAddress
	case FieldCertificateNumber:
		return &d.CertificateNumber
	case FieldConsigneeNameAddress:
		return &d.ConsigneeNameAddress
	case FieldTransportDetails:
		return &d.TransportDetails
	case FieldOfficialUse:
		return &d.OfficialUse
	case FieldItemNumber:
		return &d.ItemNumber
	case FieldPackageMarks:
		return &d.PackageMarks
	case FieldPackageDescription:
		return &d.PackageDescription
	case FieldOriginCriteria:
		return &d.OriginCriteria
	case FieldGrossWeight:
		return &d.GrossWeight
	case FieldInvoiceNumberDate:
		return &d.InvoiceNumberDate
	case FieldHSCode:
		return &d.HSCode
	case FieldCertificatePlaceDate:
		return &d.CertificatePlaceDate
	case FieldCertificateSignature:
		return &d.CertificateSignature
	case FieldExporterDeclarationPlaceDate:
		return &d.ExporterDeclarationPlaceDate
	case FieldExporterSignature:
		return &d.ExporterSignature
	case FieldImportingCountry:
		return &d.ImportingCountry
	}
	return nil
}

// Get returns the value of the named field.
func (d Data) Get(name string) string {
	if p := d.ref(name); p != nil {
		return *p
	}
	return ""
}

// With returns a copy of d with the named field set. Unknown names are ignored.
func (d Data) With(name, value string) Data {
	if p := d.ref(name); p != nil {
		*p = value
	}
	return d
}

// Map returns every field keyed by name. This is the render payload.
func (d Data) Map() map[string]string {
	m := make(map[string]string, len(Fields))
	for _, f := range Fields {
		m[f.Name] = d.Get(f.Name)
	}
	return m
}

// Values returns every field as ordered name/value pairs.
func (d Data) Values() []FieldValue {
	values := make([]FieldValue, 0, len(Fields))
	for _, f := range Fields {
		values = append(values, FieldValue{Name: f.Name, Value: d.Get(f.Name)})
	}
	return values
}

// Validate applies the field rules to every value. No field is required;
// this is the API request schema.
func (d Data) Validate() error {
	var errs []FieldError
	for _, f := range Fields {
		if fe, ok := checkRule(f, d.Get(f.Name)); !ok {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// FromFields builds Data under the batch submission schema: unknown keys
// and missing required fields are rejected, absent optional fields are "".
// Keys and values are expected to be trimmed already.
func FromFields(fields map[string]string) (Data, error) {
	var (
		d       Data
		errs    []FieldError
		unknown []string
	)

	for name, value := range fields {
		p := d.ref(name)
		if p == nil {
			unknown = append(unknown, name)
			continue
		}
		*p = value
	}

	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, FieldError{Field: name, Code: CodeUnknown, Message: "unknown field"})
	}

	for _, f := range Fields {
		value := d.Get(f.Name)
		if f.Required && strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: f.Name, Code: CodeRequired, Message: "field is required"})
			continue
		}
		if fe, ok := checkRule(f, value); !ok {
			errs = append(errs, fe)
		}
	}

	if len(errs) > 0 {
		return Data{}, &ValidationError{Errors: errs}
	}
	return d, nil
}

func checkRule(f Field, value string) (FieldError, bool) {
	if f.Rule == "" || value == "" {
		return FieldError{}, true
	}
	if err := validate.Var(value, f.Rule); err != nil {
		return FieldError{Field: f.Name, Code: CodeInvalid, Message: "violates rule " + f.Rule}, false
	}
	return FieldError{}, true
}

package letter

import (
	"bytes"
	"strings"
	"text/template"
	"time"
)

var letterTemplate = template.Must(template.New("invitation").Parse(`MEDICAL VISA INVITATION LETTER

Reference: {{.Reference}}
Date: {{.Date}}

To the Visa Officer
Embassy / High Commission of India
{{.CountryCode}}

Subject: Invitation for medical treatment in India

Dear Sir or Madam,

We confirm that the patient holding passport number {{.PassportNumber}} has an
appointment at our hospital (booking {{.BookingID}}) for the following treatment.

Purpose of visit:    {{.Purpose}}
Treatment duration:  {{.TreatmentDuration}}
Expected stay:       {{.StayDuration}}
Planned arrival:     {{.Arrival}}
Planned departure:   {{.Departure}}
Attendants:          {{.AttendantCount}}
{{- if .Notes}}

Notes: {{.Notes}}
{{- end}}

We request that a medical visa be granted to the patient{{if gt .AttendantCount 0}} and the listed attendants{{end}}.

Sincerely,

{{.DoctorName}}
{{.Designation}}
Hospital {{.HospitalID}}

This letter confirms a treatment booking only. It does not guarantee the issue
of a visa, which remains at the sole discretion of the issuing authority.
`))

type letterData struct {
	Reference         string
	Date              string
	CountryCode       string
	PassportNumber    string
	BookingID         string
	HospitalID        string
	Purpose           string
	TreatmentDuration string
	StayDuration      string
	Arrival           string
	Departure         string
	AttendantCount    int
	Notes             string
	DoctorName        string
	Designation       string
}

const dateLayout = "02 January 2006"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "to be confirmed"
	}
	return t.UTC().Format(dateLayout)
}

func render(d letterData) ([]byte, error) {
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, d); err != nil {
		return nil, err
	}
	return []byte(strings.TrimLeft(buf.String(), "\n")), nil
}

package entity

// CadastralUnit is one land-registry identifier tuple. Section is only kept
// when letter-coded.
type CadastralUnit struct {
	Sheet    *string `json:"foglio"`
	Parcel   *string `json:"particella"`
	Mappale  *string `json:"mappale"`
	Subunit  *string `json:"subalterno"`
	Category *string `json:"categoria"`
	Section  *string `json:"sezione,omitempty"`
}

// Present reports whether at least one field is set.
func (u CadastralUnit) Present() bool {
	return u.Sheet != nil || u.Parcel != nil || u.Mappale != nil ||
		u.Subunit != nil || u.Category != nil || u.Section != nil
}

// Complete reports whether sheet, parcel, subunit and category are all set.
func (u CadastralUnit) Complete() bool {
	return u.Sheet != nil && u.Parcel != nil && u.Subunit != nil && u.Category != nil
}

// WithMappaleDefault returns u with Mappale falling back to Parcel.
func (u CadastralUnit) WithMappaleDefault() CadastralUnit {
	if u.Mappale == nil && u.Parcel != nil {
		p := *u.Parcel
		u.Mappale = &p
	}
	return u
}

package college

import (
	"math"

	"github.com/fxamacker/cbor/v2"
)

// cborEncoder sorts map keys so equal records encode to equal bytes.
var cborEncoder = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Fields returns the record as the same flat key/value view MarshalJSON
// produces: metadata under its JSON names and attributes under their
// canonical column names. Missing and non-finite values are left out.
func (r Record) Fields() map[string]any {
	m := map[string]any{
		"id":   r.ID,
		"name": r.Name,
	}
	if r.UnitID != 0 {
		m["unitid"] = r.UnitID
	}
	for key, s := range map[string]string{
		"city":          r.City,
		"state":         r.State,
		"zip_code":      r.ZIP,
		"website_url":   r.Website,
		"net_price_url": r.NetPriceURL,
	} {
		if s != "" {
			m[key] = s
		}
	}
	if r.Latitude != nil {
		m["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		m["longitude"] = *r.Longitude
	}
	if r.Control != nil {
		m["control"] = *r.Control
	}
	if r.Locale != nil {
		m["locale"] = *r.Locale
	}
	if r.Region != nil {
		m["region"] = *r.Region
	}
	if r.IsHBCU {
		m["is_hbcu"] = true
	}
	if r.IsTribal {
		m["is_tribal"] = true
	}
	for a, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		m[a.String()] = v
	}
	return m
}

// MarshalCBOR implements cbor.Marshaler with the flat layout of Fields.
func (r Record) MarshalCBOR() ([]byte, error) {
	return cborEncoder.Marshal(r.Fields())
}

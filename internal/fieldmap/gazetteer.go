package fieldmap

import "strings"

// Municipality is one gazetteer entry. Aliases are lowercase spellings
// matched against free text.
type Municipality struct {
	Name    string
	Aliases []string
}

// District groups municipalities.
type District struct {
	Name           string
	Municipalities []Municipality
}

// minReverseMatch guards against short inputs like "or" matching a
// municipality that happens to contain them.
const minReverseMatch = 3

// Bataan is the provincial gazetteer, in district order.
var Bataan = []District{
	{Name: "1ST DISTRICT", Municipalities: []Municipality{
		{Name: "Abucay", Aliases: []string{"abucay"}},
		{Name: "Hermosa", Aliases: []string{"hermosa"}},
		{Name: "Orani", Aliases: []string{"orani"}},
		{Name: "Samal", Aliases: []string{"samal"}},
	}},
	{Name: "2ND DISTRICT", Municipalities: []Municipality{
		{Name: "Balanga City", Aliases: []string{"balanga city", "balanga"}},
		{Name: "Limay", Aliases: []string{"limay"}},
		{Name: "Orion", Aliases: []string{"orion"}},
		{Name: "Pilar", Aliases: []string{"pilar"}},
	}},
	{Name: "3RD DISTRICT", Municipalities: []Municipality{
		{Name: "Bagac", Aliases: []string{"bagac"}},
		{Name: "Dinalupihan", Aliases: []string{"dinalupihan"}},
		{Name: "Mariveles", Aliases: []string{"mariveles"}},
		{Name: "Morong", Aliases: []string{"morong"}},
	}},
}

// DetectLocation resolves a municipality and district from an explicit
// municipality value, falling back to free location text. When nothing
// matches the municipality is returned as given and district is empty.
func DetectLocation(municipality, location string) (string, string) {
	if name, district, ok := lookupMunicipality(municipality); ok {
		return name, district
	}
	if name, district, ok := lookupMunicipality(location); ok {
		return name, district
	}
	return strings.TrimSpace(municipality), ""
}

// DistrictOf returns the district for a canonical municipality name.
func DistrictOf(municipality string) string {
	m := strings.ToLower(strings.TrimSpace(municipality))
	for _, d := range Bataan {
		for _, muni := range d.Municipalities {
			if strings.ToLower(muni.Name) == m {
				return d.Name
			}
		}
	}
	return ""
}

func lookupMunicipality(text string) (string, string, bool) {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if t == "" {
		return "", "", false
	}
	for _, d := range Bataan {
		for _, muni := range d.Municipalities {
			for _, alias := range muni.Aliases {
				if strings.Contains(t, alias) {
					return muni.Name, d.Name, true
				}
				if len(t) >= minReverseMatch && strings.Contains(alias, t) {
					return muni.Name, d.Name, true
				}
			}
		}
	}
	return "", "", false
}

package models

// Ideology is the controlled vocabulary used for post spectrum and comment authorship
type Ideology string

const (
	IdeologyNeutral Ideology = "neutral"

	// general politics
	IdeologyLeft          Ideology = "left"
	IdeologyRight         Ideology = "right"
	IdeologyCenter        Ideology = "center"
	IdeologyLiberal       Ideology = "liberal"
	IdeologyConservative  Ideology = "conservative"
	IdeologyProgressive   Ideology = "progressive"
	IdeologyAuthoritarian Ideology = "authoritarian"
	IdeologyLibertarian   Ideology = "libertarian"
	IdeologyPopulist      Ideology = "populist"
	IdeologyTechnocratic  Ideology = "technocratic"

	// economy
	IdeologyProtectionist   Ideology = "protectionist"
	IdeologySocialist       Ideology = "socialist"
	IdeologyCapitalist      Ideology = "capitalist"
	IdeologyFreeMarket      Ideology = "free_market"
	IdeologySocialMarket    Ideology = "social_market"
	IdeologyStateControlled Ideology = "state_controlled"
	IdeologyCryptoFriendly  Ideology = "crypto_friendly"

	// social and cultural
	IdeologyFeminist         Ideology = "feminist"
	IdeologyTraditionalist   Ideology = "traditionalist"
	IdeologyMulticulturalist Ideology = "multiculturalist"
	IdeologySecular          Ideology = "secular"
	IdeologyReligious        Ideology = "religious"
	IdeologyEnvironmentalist Ideology = "environmentalist"

	// technology
	IdeologyTechProgressive Ideology = "tech_progressive"
	IdeologyTechSkeptic     Ideology = "tech_skeptic"
	IdeologyAIEthics        Ideology = "ai_ethics"

	// geopolitics
	IdeologyGlobalist       Ideology = "globalist"
	IdeologyNationalist     Ideology = "nationalist"
	IdeologyInterventionist Ideology = "interventionist"
	IdeologyIsolationist    Ideology = "isolationist"
	IdeologyProUnion        Ideology = "pro_union"
)

// Ideologies lists the full vocabulary in prompt order
var Ideologies = []Ideology{
	IdeologyNeutral,
	IdeologyLeft, IdeologyRight, IdeologyCenter, IdeologyLiberal, IdeologyConservative,
	IdeologyProgressive, IdeologyAuthoritarian, IdeologyLibertarian, IdeologyPopulist, IdeologyTechnocratic,
	IdeologyProtectionist, IdeologySocialist, IdeologyCapitalist, IdeologyFreeMarket,
	IdeologySocialMarket, IdeologyStateControlled, IdeologyCryptoFriendly,
	IdeologyFeminist, IdeologyTraditionalist, IdeologyMulticulturalist, IdeologySecular,
	IdeologyReligious, IdeologyEnvironmentalist,
	IdeologyTechProgressive, IdeologyTechSkeptic, IdeologyAIEthics,
	IdeologyGlobalist, IdeologyNationalist, IdeologyInterventionist, IdeologyIsolationist, IdeologyProUnion,
}

// Spectrums is the subset a synthesized post may be classified with
var Spectrums = []Ideology{
	IdeologyNeutral,
	IdeologyLeft,
	IdeologyRight,
	IdeologyCenter,
	IdeologyLiberal,
	IdeologyConservative,
	IdeologyProgressive,
	IdeologyProtectionist,
}

var (
	ideologySet = toSet(Ideologies)
	spectrumSet = toSet(Spectrums)
)

func toSet(values []Ideology) map[Ideology]struct{} {
	set := make(map[Ideology]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Valid reports whether i belongs to the ideology vocabulary
func (i Ideology) Valid() bool {
	_, ok := ideologySet[i]
	return ok
}

// ValidSpectrum reports whether i may be used as a post spectrum
func (i Ideology) ValidSpectrum() bool {
	_, ok := spectrumSet[i]
	return ok
}

// IdeologyStrings returns the values as plain strings (schema enums, prompts)
func IdeologyStrings(values []Ideology) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

package diagnosis

import (
	"fmt"
	"image/color"
	"slices"
	"strings"
)

// Severity ranks how urgently a disease needs treatment.
type Severity string

const (
	// SeverityLow needs routine care only.
	SeverityLow Severity = "low"
	// SeverityMedium needs treatment soon.
	SeverityMedium Severity = "medium"
	// SeverityHigh needs immediate treatment.
	SeverityHigh Severity = "high"
)

// IsValid reports whether s is low, medium or high.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// DiseaseInfo is the static reference entry shown for a disease class.
type DiseaseInfo struct {
	DiseaseClass DiseaseClass `json:"diseaseClass"`
	DisplayName  string       `json:"displayName"`
	Description  string       `json:"description"`
	Symptoms     []string     `json:"symptoms"`
	Treatments   []string     `json:"treatments"`
	Severity     Severity     `json:"severity"`
}

var diseaseInfo = map[DiseaseClass]DiseaseInfo{
	BacterialInfection: {
		DiseaseClass: BacterialInfection,
		DisplayName:  "Bacterial Infection",
		Description: "Bacterial infections in fish are caused by harmful bacteria in the water. " +
			"They can affect the skin, fins, gills, and internal organs. Common types include " +
			"columnaris, fin rot, and ulcer disease.",
		Symptoms: []string{
			"Red or inflamed patches on body",
			"Frayed or deteriorating fins",
			"White or gray patches on skin",
			"Ulcers or open sores",
			"Loss of appetite",
			"Lethargy or unusual swimming behavior",
		},
		Treatments: []string{
			"Quarantine affected fish immediately",
			"Perform 25-50% water change",
			"Add aquarium salt (1 tablespoon per 5 gallons)",
			"Use broad-spectrum antibiotic treatment",
			"Improve water quality and filtration",
			"Maintain stable water temperature",
		},
		Severity: SeverityHigh,
	},
	FungalInfection: {
		DiseaseClass: FungalInfection,
		DisplayName:  "Fungal Infection",
		Description: "Fungal infections appear as cotton-like growths on the fish's body, fins, " +
			"or mouth. They typically occur secondary to injury or stress and thrive in poor " +
			"water conditions.",
		Symptoms: []string{
			"White cotton-like growth on body or fins",
			"Fuzzy patches on skin",
			"Loss of color in affected areas",
			"Reduced activity",
			"Difficulty swimming",
			"Clamped fins",
		},
		Treatments: []string{
			"Quarantine infected fish",
			"Add antifungal medication to water",
			"Increase water temperature slightly (if species appropriate)",
			"Improve water quality with regular changes",
			"Add aquarium salt (dosage per product instructions)",
			"Remove any sharp decorations that could cause injury",
		},
		Severity: SeverityMedium,
	},
	Healthy: {
		DiseaseClass: Healthy,
		DisplayName:  "Healthy",
		Description: "Your fish appears to be in good health with no visible signs of disease " +
			"or distress. Continue regular tank maintenance to keep your fish thriving.",
		Symptoms: []string{
			"Bright, vibrant colors",
			"Clear, unblemished skin",
			"Active swimming behavior",
			"Good appetite",
			"Erect, intact fins",
			"Clear eyes",
		},
		Treatments: []string{
			"Maintain regular water change schedule",
			"Provide balanced, species-appropriate diet",
			"Monitor water parameters regularly",
			"Avoid overcrowding the tank",
			"Quarantine new fish before adding to main tank",
			"Keep tank clean and well-filtered",
		},
		Severity: SeverityLow,
	},
	Parasite: {
		DiseaseClass: Parasite,
		DisplayName:  "Parasite Infection",
		Description: "Parasitic infections are caused by external or internal parasites. Common " +
			"types include ich (white spot disease), anchor worms, fish lice, and gill flukes. " +
			"They can spread rapidly in aquarium conditions.",
		Symptoms: []string{
			"White spots on body and fins (ich)",
			"Flashing or scratching against objects",
			"Rapid gill movement",
			"Visible parasites on body",
			"Weight loss despite eating",
			"Cloudy or bulging eyes",
		},
		Treatments: []string{
			"Raise water temperature gradually (for ich)",
			"Add anti-parasitic medication",
			"Increase aeration during treatment",
			"Perform daily water changes during treatment",
			"Remove visible parasites with tweezers (for larger parasites)",
			"Treat entire tank, not just affected fish",
		},
		Severity: SeverityMedium,
	},
	WhiteTail: {
		DiseaseClass: WhiteTail,
		DisplayName:  "White Tail Disease",
		Description: "White tail disease is a serious bacterial infection that causes the tail " +
			"and posterior portion of the fish to turn white. It can progress rapidly and " +
			"requires immediate attention.",
		Symptoms: []string{
			"White discoloration starting at the tail",
			"Whitening spreading toward the head",
			"Frayed or deteriorating tail fin",
			"Loss of appetite",
			"Rapid breathing",
			"Lethargy and bottom-sitting",
		},
		Treatments: []string{
			"Immediate quarantine of affected fish",
			"Strong antibiotic treatment",
			"Daily 50% water changes",
			"Add aquarium salt to quarantine tank",
			"Maintain optimal water temperature",
			"Improve overall tank hygiene",
		},
		Severity: SeverityHigh,
	},
}

// LookupDiseaseInfo returns a copy of the reference entry for a class.
func LookupDiseaseInfo(class DiseaseClass) (DiseaseInfo, bool) {
	info, ok := diseaseInfo[class]
	if !ok {
		return DiseaseInfo{}, false
	}
	info.Symptoms = slices.Clone(info.Symptoms)
	info.Treatments = slices.Clone(info.Treatments)
	return info, true
}

// AllDiseaseInfo returns copies of every reference entry in class order.
func AllDiseaseInfo() []DiseaseInfo {
	out := make([]DiseaseInfo, 0, len(DiseaseClasses))
	for _, class := range DiseaseClasses {
		if info, ok := LookupDiseaseInfo(class); ok {
			out = append(out, info)
		}
	}
	return out
}

var (
	colorHealthy = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	colorLow     = color.RGBA{R: 0xea, G: 0xb3, B: 0x08, A: 0xff}
	colorSevere  = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
)

// BoundingBoxColor returns the box color for a class: green for healthy fish,
// yellow for low severity and red for everything else, including unknown classes.
func BoundingBoxColor(class DiseaseClass) color.RGBA {
	if class == Healthy {
		return colorHealthy
	}
	info, ok := diseaseInfo[class]
	if ok && info.Severity == SeverityLow {
		return colorLow
	}
	return colorSevere
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// DiseaseLabel turns a snake_case class name into a title, e.g.
// "bacterial_infection" becomes "Bacterial Infection".
func DiseaseLabel(class string) string {
	words := strings.Split(class, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package free

import "strings"

var thematicWords = map[string]map[string][]string{ //nolint:gochecknoglobals // fixed word list
	"dom": {
		"A1": {"door", "window", "bed", "chair", "table", "kitchen", "bathroom", "garden"},
		"A2": {"carpet", "curtain", "shelf", "drawer", "ceiling", "stairs", "attic", "garage"},
		"B1": {"furniture", "appliance", "decoration", "renovation", "landlord", "tenant", "mortgage"},
		"B2": {"maintenance", "plumbing", "insulation", "ventilation", "foundation", "blueprint"},
	},
	"jedzenie": {
		"A1": {"bread", "milk", "egg", "apple", "water", "meat", "rice", "salad"},
		"A2": {"breakfast", "lunch", "dinner", "snack", "dessert", "ingredient", "recipe"},
		"B1": {"nutrition", "vitamin", "protein", "vegetarian", "organic", "calories", "diet"},
		"B2": {"cuisine", "gourmet", "seasoning", "marinate", "garnish", "culinary"},
	},
	"transport": {
		"A1": {"car", "bus", "train", "bike", "walk", "stop", "ticket", "road"},
		"A2": {"journey", "passenger", "driver", "traffic", "parking", "fuel", "route"},
		"B1": {"commute", "vehicle", "transportation", "schedule", "delay", "destination"},
		"B2": {"infrastructure", "congestion", "sustainable", "logistics", "freight"},
	},
}

const (
	fallbackCategory = "dom"
	fallbackLevel    = "A1"
)

// templateWords returns the headword list for category and level with the scope naming it.
// Unknown combinations use the basic household list.
func templateWords(category, level string) ([]string, string) {
	if words, ok := thematicWords[category][level]; ok {
		return words, category + "/" + level
	}
	return thematicWords[fallbackCategory][fallbackLevel], fallbackCategory + "/" + fallbackLevel
}

// unknownTemplateWords returns at most limit distinct headwords of the list whose lowercase form is not in known.
func unknownTemplateWords(category, level string, known map[string]struct{}, limit int) []string {
	words, _ := templateWords(category, level)
	res := make([]string, 0, min(limit, len(words)))
	for _, w := range words {
		if len(res) >= limit {
			break
		}
		if _, ok := known[strings.ToLower(w)]; ok {
			continue
		}
		res = append(res, w)
	}
	return res
}

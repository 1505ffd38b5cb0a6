package advisor

import "strings"

// categoryKeywords maps item-name fragments to spending categories. First
// match wins, checked in the listed order.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"groceries", []string{"grocery", "vegetable", "fruit", "rice", "flour", "milk", "atta"}},
	{"dining", []string{"restaurant", "pizza", "burger", "coffee", "dinner", "lunch", "buffet"}},
	{"transportation", []string{"bike", "scooter", "cycle", "car", "helmet", "tyre", "fuel"}},
	{"utilities", []string{"router", "inverter", "battery", "bulb", "fan", "heater", "geyser"}},
	{"entertainment", []string{"game", "console", "playstation", "xbox", "guitar", "speaker", "subscription"}},
	{"shopping", []string{"shirt", "dress", "shoe", "watch", "bag", "jacket", "saree", "jeans"}},
	{"healthcare", []string{"medicine", "vitamin", "supplement", "glasses", "treadmill", "protein"}},
	{"education", []string{"book", "course", "tuition", "exam", "certification", "udemy"}},
	{"electronics", []string{"phone", "laptop", "tablet", "camera", "headphone", "earbud", "monitor", "keyboard", "tv", "television"}},
	{"home", []string{"sofa", "table", "chair", "mattress", "curtain", "fridge", "washing machine", "microwave"}},
}

// CategorizeItem guesses a spending category from the item name. Unmatched
// names fall into "other".
func CategorizeItem(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return "other"
}

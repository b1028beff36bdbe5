package mutation

import "strings"

// genericDescriptorWords are stripped before comparing a requested name with
// a matched candidate. What survives is the part that actually identifies
// the place.
var genericDescriptorWords = map[string]struct{}{
	"palace": {}, "temple": {}, "market": {}, "park": {}, "tower": {},
	"village": {}, "museum": {}, "beach": {}, "mountain": {}, "restaurant": {},
	"cafe": {}, "hotel": {}, "street": {}, "station": {},
}

func coreWords(name string) []string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(name)) {
		word = strings.Trim(word, ",.()-&")
		if word == "" {
			continue
		}
		if _, generic := genericDescriptorWords[word]; generic {
			continue
		}
		words = append(words, word)
	}
	return words
}

// coreWordGuardAccepts decides whether a name-search hit is the place the
// customer meant. After stripping generic descriptor words from both sides:
// either side left with nothing accepts (the descriptors were the whole
// name), otherwise at least one remaining request word must appear in the
// candidate's remaining text.
func coreWordGuardAccepts(requested, candidate string) bool {
	requestWords := coreWords(requested)
	candidateWords := coreWords(candidate)
	if len(requestWords) == 0 || len(candidateWords) == 0 {
		return true
	}
	candidateText := strings.Join(candidateWords, " ")
	for _, word := range requestWords {
		if strings.Contains(candidateText, word) {
			return true
		}
	}
	return false
}

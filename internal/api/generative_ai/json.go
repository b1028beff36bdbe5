package generativeAI

import "strings"

// ExtractJSONBlock pulls the first well-formed-looking JSON object out of a
// model response. Models wrap payloads in markdown fences or pad them with
// prose; callers still need to json.Unmarshal the result and keep their own
// fallback for payloads with no object at all.
func ExtractJSONBlock(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}
	response = strings.TrimSpace(response)

	// Keep only the span between the first { and the last }.
	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}
	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}
	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}

package visionmodel

// TokenParamName returns the request field name a given model expects for
// its output-length cap. Modeled as a small capability registry keyed by
// model-name prefix so call sites never need per-model conditionals
// (spec.md §9 "Two external-model parameter families").
//
// Grounded in the teacher's OpenAI o-series detection: o-series reasoning
// models (o1, o3, o4, ...) accept max_completion_tokens instead of
// max_tokens and do not accept temperature/top_p at all. Unknown model
// prefixes default to max_tokens per spec.md §4.2.
func TokenParamName(model string) string {
	if isOSeriesModel(model) {
		return "max_completion_tokens"
	}
	return "max_tokens"
}

// SupportsSamplingParams reports whether a model accepts temperature/top_p.
func SupportsSamplingParams(model string) bool {
	return !isOSeriesModel(model)
}

// isOSeriesModel checks if a model is an OpenAI o-series reasoning model
// (o1, o3, o4, ...), which require max_completion_tokens instead of max_tokens.
func isOSeriesModel(model string) bool {
	if len(model) >= 2 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9' {
		return true
	}
	return false
}

// BuildTokenLimitField sets the correct output-length field on a JSON
// request map for the given model.
func BuildTokenLimitField(req map[string]any, model string, tokenLimit int) {
	req[TokenParamName(model)] = tokenLimit
}

// BuildSamplingFields sets temperature/top_p on a JSON request map if the
// model supports them.
func BuildSamplingFields(req map[string]any, model string, temperature, topP float32) {
	if !SupportsSamplingParams(model) {
		return
	}
	req["temperature"] = temperature
	req["top_p"] = topP
}

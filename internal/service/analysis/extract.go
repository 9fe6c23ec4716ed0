package analysis

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// The analysis model is not guaranteed to answer in any one shape: it may
// return clean JSON, prose with inline numbers, or prose with X/Y grades.
// Extraction therefore layers three strategies per field, first hit wins:
// whole-text JSON, labeled decimal, labeled fraction scaled to 0-10.

var (
	technicalNumberRe   = labeledNumberPattern("technical")
	technicalFractionRe = labeledFractionPattern("technical")
	emotionalNumberRe   = labeledNumberPattern("emotional|emotion")
	emotionalFractionRe = labeledFractionPattern("emotional|emotion")
)

func labeledNumberPattern(label string) *regexp.Regexp {
	// Label followed by the first decimal on the same line. Whether the
	// number is really a fraction numerator (8.5/10) is decided in code,
	// not here: a regex suffix guard would backtrack into a truncated
	// capture for decimals.
	return regexp.MustCompile(`(?i)(?:` + label + `)[^0-9\n]*([0-9]+(?:\.[0-9]+)?)`)
}

func labeledFractionPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + label + `)[^/]*?([0-9]+(?:\.[0-9]+)?)/([0-9]+(?:\.[0-9]+)?)`)
}

// ParseScores extracts technical and emotional scores from raw analysis
// text. Fields the text does not yield are returned as nil; the orchestrator
// substitutes the neutral default.
func ParseScores(text string) (technical, emotional *float64) {
	if text == "" {
		return nil, nil
	}

	if tech, emo, ok := parseJSONScores(text); ok {
		return tech, emo
	}

	technical = findLabeledScore(text, technicalNumberRe, technicalFractionRe)
	emotional = findLabeledScore(text, emotionalNumberRe, emotionalFractionRe)
	return technical, emotional
}

// parseJSONScores handles the case where the whole response is a JSON
// object with "technical"/"emotional" keys. Each key resolves
// independently; a missing key stays nil.
func parseJSONScores(text string) (technical, emotional *float64, ok bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, nil, false
	}
	return coerceFloat(payload["technical"]), coerceFloat(payload["emotional"]), true
}

func coerceFloat(raw json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num
	}

	// Tolerate numbers quoted as strings.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if num, err := strconv.ParseFloat(s, 64); err == nil {
			return &num
		}
	}
	return nil
}

func findLabeledScore(text string, numberRe, fractionRe *regexp.Regexp) *float64 {
	if loc := numberRe.FindStringSubmatchIndex(text); loc != nil {
		start, end := loc[2], loc[3]
		// A number immediately followed by a slash is the numerator of a
		// grade like 4/5 or 8.5/10; the fraction strategy owns it.
		if end >= len(text) || text[end] != '/' {
			if val, err := strconv.ParseFloat(text[start:end], 64); err == nil {
				return &val
			}
		}
	}

	if m := fractionRe.FindStringSubmatch(text); m != nil {
		numerator, err1 := strconv.ParseFloat(m[1], 64)
		denominator, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && denominator != 0 {
			val := numerator / denominator * 10.0
			return &val
		}
	}

	return nil
}

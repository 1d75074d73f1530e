package frontend

import "strings"

const (
	healthyTip = "No issues detected. Maintain regular watering."
	defaultTip = "Keep monitoring and ensure proper sunlight and water balance."

	// warningBelow is the confidence under which a diagnosis is shown as uncertain.
	warningBelow = 70.0
)

var preventionTips = map[string]string{
	"Tomato Early Blight":        "Use neem oil and remove infected leaves.",
	"Potato Late Blight":         "Avoid water on leaves; apply copper-based fungicide.",
	"Apple Scab":                 "Prune infected branches; ensure good air flow.",
	"Corn Rust":                  "Rotate crops and use resistant hybrids.",
	"Healthy Leaf":               healthyTip,
	"Mango Anthracnose":          "Spray with copper fungicide during flowering.",
	"Pepper Bell Bacterial Spot": "Avoid overhead watering; use disease-free seeds.",

	"Tomato___Early_blight":         "Use neem oil and remove infected leaves.",
	"Potato___Late_blight":          "Avoid water on leaves; apply copper-based fungicide.",
	"Apple___Apple_scab":            "Prune infected branches; ensure good air flow.",
	"Corn_(maize)___Common_rust_":   "Rotate crops and use resistant hybrids.",
	"Pepper,_bell___Bacterial_spot": "Avoid overhead watering; use disease-free seeds.",
}

// PreventionTip returns advice for a predicted label. Labels without a
// dedicated entry get the healthy or the general tip.
func PreventionTip(disease string) string {
	if tip, ok := preventionTips[disease]; ok {
		return tip
	}
	if isHealthy(disease) {
		return healthyTip
	}
	return defaultTip
}

// SeverityClass picks the CSS class used to color a diagnosis.
func SeverityClass(disease string, confidence float64) string {
	switch {
	case isHealthy(disease):
		return "success"
	case confidence < warningBelow:
		return "warning"
	default:
		return "danger"
	}
}

func isHealthy(disease string) bool {
	return strings.Contains(strings.ToLower(disease), "healthy")
}

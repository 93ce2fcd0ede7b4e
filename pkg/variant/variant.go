// Package variant reconciles flat run options into the parameter groups of
// one of the four fairness-mitigation algorithm variants.
package variant

import (
	"fmt"
	"strings"

	"github.com/brianbland/fairrl/pkg/config"
)

// Variant represents one of the mutually exclusive training algorithms
type Variant string

const (
	VariantELBERT Variant = "ELBERT" // smooth bias penalty (primary method)
	VariantAPPO   Variant = "APPO"   // adaptive bias penalty baseline
	VariantGPPO   Variant = "GPPO"   // fixed (zero) penalty baseline
	VariantRPPO   Variant = "RPPO"   // regularized reward shaping baseline
)

// Variants returns every supported variant in display order
func Variants() []Variant {
	return []Variant{
		VariantELBERT,
		VariantAPPO,
		VariantGPPO,
		VariantRPPO,
	}
}

// Description returns a one-line description of the variant
func (v Variant) Description() string {
	switch v {
	case VariantELBERT:
		return "ELBERT - Policy optimization with a smoothed squared penalty on the long-term benefit rate gap"
	case VariantAPPO:
		return "APPO - PPO with a reward penalty that activates once the bias exceeds omega"
	case VariantGPPO:
		return "GPPO - PPO on the main reward with a fixed, disabled fairness penalty"
	case VariantRPPO:
		return "RPPO - PPO with a fairness regularization term shaped into the training reward"
	default:
		return "Unknown variant"
	}
}

// ParseVariant parses a string into a Variant
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ELBERT":
		return VariantELBERT, nil
	case "APPO":
		return VariantAPPO, nil
	case "GPPO":
		return VariantGPPO, nil
	case "RPPO":
		return VariantRPPO, nil
	default:
		return "", &config.ConfigurationError{
			Field:  "algorithm",
			Reason: fmt.Sprintf("invalid algorithm %q, must be one of %v", s, Variants()),
		}
	}
}

// IgnoredFlags returns the flags whose user-supplied value the variant
// replaces with a fixed neutral value, plus the shaping flags the kind
// has no term for.
func (v Variant) IgnoredFlags(kind config.EnvKind) []string {
	reg := fmt.Sprintf("zeta-%d", kind.RegularizationIndex())
	var ignored []string
	switch v {
	case VariantAPPO, VariantGPPO:
		ignored = []string{"bias-coef", reg, "main-reward-coef"}
	case VariantELBERT:
		ignored = []string{reg}
	case VariantRPPO:
		ignored = []string{"bias-coef", "main-reward-coef"}
	default:
		return nil
	}
	if kind == config.EnvLending {
		ignored = append(ignored, "zeta-2")
	}
	return ignored
}

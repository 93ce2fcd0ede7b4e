// Package identity derives the experiment directory of a run from its
// reconciled configuration and materializes it on disk.
package identity

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/variant"
)

const (
	// ModelsDir is the model-storage subdirectory of every experiment
	ModelsDir = "models"

	debugMarker = "debug"
)

// Key holds every value that participates in the experiment path
type Key struct {
	Root           string
	EnvTag         string
	Variant        variant.Variant
	BetaSmooth     float64
	BiasCoef       float64
	MainRewardCoef float64
	LR             float64
	Extra          string
	Index          int
	Debug          bool
}

// KeyFor builds the key of a run from its options and reconciled groups.
// Coefficients come from the groups so forced values are what names the run.
func KeyFor(root string, opts config.RawOptions, g variant.Groups) Key {
	return Key{
		Root:           root,
		EnvTag:         opts.EnvTag(),
		Variant:        g.Variant,
		BetaSmooth:     g.Mitigation.BetaSmooth,
		BiasCoef:       g.Mitigation.BiasCoef,
		MainRewardCoef: g.Mitigation.MainRewardCoef,
		LR:             g.Training.LR,
		Extra:          opts.ExpPathExtra,
		Index:          opts.ExpIndex,
		Debug:          opts.Debug,
	}
}

// Identity is a resolved experiment directory
type Identity struct {
	Path  string
	Debug bool
}

// ModelsPath returns the model-storage directory of the experiment
func (id Identity) ModelsPath() string {
	return filepath.Join(id.Path, ModelsDir)
}

// Resolve composes the experiment path:
//
//	{root}/{env}/{variant}/[MainCoef_{c}/]smooth_{b}/alpha_{a}_lr_{lr}_{extra}expindex_{n}  (ELBERT)
//	{root}/{env}/{variant}/lr_{lr}_{extra}expindex_{n}                                      (baselines)
//
// The main-reward segment only appears when that coefficient is not 1.
func Resolve(k Key) Identity {
	base := filepath.Join(k.Root, k.EnvTag, string(k.Variant))
	tail := fmt.Sprintf("lr_%s_%sexpindex_%d", formatNumber(k.LR), suffix(k), k.Index)

	var path string
	if k.Variant == variant.VariantELBERT {
		leaf := fmt.Sprintf("alpha_%s_%s", formatNumber(k.BiasCoef), tail)
		smooth := fmt.Sprintf("smooth_%s", formatNumber(k.BetaSmooth))
		if k.MainRewardCoef == 1 {
			path = filepath.Join(base, smooth, leaf)
		} else {
			path = filepath.Join(base, fmt.Sprintf("MainCoef_%s", formatNumber(k.MainRewardCoef)), smooth, leaf)
		}
	} else {
		path = filepath.Join(base, tail)
	}

	return Identity{Path: path, Debug: k.Debug}
}

// suffix returns the user suffix with its trailing separator. Debug runs
// carry the marker in the path so overwritable directories are recognizable.
func suffix(k Key) string {
	s := ""
	if k.Debug {
		s = debugMarker + "_"
	}
	if k.Extra != "" {
		s += k.Extra + "_"
	}
	return s
}

// formatNumber renders the shortest representation that round-trips
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

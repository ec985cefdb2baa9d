package alert

import (
	"aucwatch/internal/domain/entity"
)

// dropRatio fires the price-drop rule at a 20% (or deeper) fall from the
// previous observed price.
const dropRatio = 0.8

// ShouldAlert decides whether a favorite's updated snapshot warrants a push.
// A favorite that is inactive or already alerted never fires again until the
// user resets the flag.
func ShouldAlert(f entity.Favorite) bool {
	if !f.Active || f.IsAlerted {
		return false
	}

	if f.TargetPrice != nil && f.CurrentPrice <= *f.TargetPrice {
		return true
	}

	if f.PreviousPrice != nil && f.CurrentPrice <= *f.PreviousPrice*dropRatio {
		return true
	}

	return false
}

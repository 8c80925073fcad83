package inkframe

import (
	"math"

	"github.com/inkframe/inkframe/api"
)

// paddingRatio is the relative cushion applied to large diagrams; the
// absolute floor of half the configured minimum protects small ones from
// edge-clipping near-boundary labels. The constants are contract, not tuning
// knobs.
const paddingRatio = 0.05

// PaddingFor returns the crop padding for the given bounds.
func PaddingFor(bounds api.Bounds, minimumPadding float64) float64 {
	return math.Max(minimumPadding/2, paddingRatio*math.Max(bounds.Width, bounds.Height))
}

// BuildPlan combines resolved bounds, padding policy and target format into
// the concrete render plan: crop rectangle, output pixel size, background
// fill, and a device-driven scale clamped to the pixel budget. The clamp
// degrades resolution silently (flagged on the plan for a warning signal)
// rather than ever failing.
func BuildPlan(bounds api.Bounds, format api.Format, device api.DeviceClass, cfg Config) api.RenderPlan {
	pad := PaddingFor(bounds, cfg.MinimumPadding)

	plan := api.RenderPlan{
		CropX: bounds.X - pad,
		CropY: bounds.Y - pad,
		CropW: bounds.Width + 2*pad,
		CropH: bounds.Height + 2*pad,
	}

	scale := cfg.HighResScale
	if device == api.DeviceCompact {
		scale = cfg.MobileScale
	}

	budget := float64(cfg.PixelBudget)
	if plan.CropW*scale*plan.CropH*scale > budget {
		scale = math.Sqrt(budget / (plan.CropW * plan.CropH))
		plan.BudgetClamped = true
	}
	plan.Scale = scale

	if plan.BudgetClamped {
		// flooring keeps outputW*outputH under the budget despite rounding
		plan.OutputW = int(math.Floor(plan.CropW * scale))
		plan.OutputH = int(math.Floor(plan.CropH * scale))
	} else {
		plan.OutputW = int(math.Round(plan.CropW * scale))
		plan.OutputH = int(math.Round(plan.CropH * scale))
		// rounding up on both axes can tip a near-budget plan over the
		// ceiling; the floored size is always within it
		if int64(plan.OutputW)*int64(plan.OutputH) > cfg.PixelBudget {
			plan.OutputW = int(math.Floor(plan.CropW * scale))
			plan.OutputH = int(math.Floor(plan.CropH * scale))
		}
	}
	if plan.OutputW < 1 {
		plan.OutputW = 1
	}
	if plan.OutputH < 1 {
		plan.OutputH = 1
	}

	if format.Transparent() {
		plan.Transparent = true
	} else {
		plan.Background = cfg.Theme.Background
	}
	return plan
}

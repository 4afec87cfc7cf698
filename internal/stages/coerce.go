package stages

import (
	"strconv"

	"stagehand/internal/settings"
	"stagehand/internal/stage"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// numericOrAbsent fails only when key is present and not a number.
func numericOrAbsent(bag settings.Bag, key string) bool {
	if !bag.Has(key) {
		return true
	}
	_, ok := bag.Float(key)
	return ok
}

// pathArgs appends --input_dir/--output_dir when the bag carries them.
func pathArgs(cmd []string, bag settings.Bag) []string {
	if bag.Has(stage.KeyInputDir) {
		cmd = append(cmd, "--input_dir", bag.String(stage.KeyInputDir, ""))
	}
	if bag.Has(stage.KeyOutputDir) {
		cmd = append(cmd, "--output_dir", bag.String(stage.KeyOutputDir, ""))
	}
	return cmd
}

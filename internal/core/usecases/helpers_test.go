package usecases_test

import "github.com/samirrijal/earthwork/internal/core/sampling"

func samplingParams(gridSize float64) sampling.Params {
	return sampling.Params{GridSize: gridSize, DefaultOriginal: 1, DefaultTarget: 2}
}

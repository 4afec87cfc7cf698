package stages

import (
	"stagehand/internal/registry"
	"stagehand/internal/settings"
	"stagehand/internal/stage"
)

// Stage and category names of the default catalog.
const (
	CategoryPreprocessing = "Preprocessing"
	CategorySfM           = "Structure from Motion"
	CategoryTraining      = "Training"

	FrameExtractionName = "Frame Extraction"
	BlurFilterName      = "Blur Filter"
	DeduplicateName     = "Deduplicate Frames"
	ColmapName          = "COLMAP"
	GlomapName          = "GLOMAP (Global)"
	TrainingName        = "Standard 3DGS"
)

// DefaultCatalog builds the registry shipped with Stagehand: multi-select
// preprocessing, then a single reconstruction, then a single trainer.
func DefaultCatalog(store *settings.Store, tools Tools) (*registry.Registry, error) {
	reg := registry.New()
	categories := []*registry.Category{
		{
			Name: CategoryPreprocessing,
			Mode: registry.Multi,
			Rank: 1,
			Stages: []stage.Stage{
				NewFrameExtraction(FrameExtractionName, store, tools),
				NewBlurFilter(BlurFilterName, store, tools),
				NewDeduplicate(DeduplicateName, store, tools),
			},
		},
		{
			Name: CategorySfM,
			Mode: registry.Single,
			Rank: 2,
			Stages: []stage.Stage{
				NewColmap(ColmapName, store, tools),
				NewGlomap(GlomapName, store, tools),
			},
		},
		{
			Name: CategoryTraining,
			Mode: registry.Single,
			Rank: 3,
			Stages: []stage.Stage{
				NewFastGS(TrainingName, store, tools),
			},
		},
	}
	for _, category := range categories {
		if err := reg.Add(category); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

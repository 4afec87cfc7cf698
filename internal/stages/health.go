package stages

import "stagehand/internal/stage"

func (s *FrameExtraction) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.tools.python(), s.tools.scriptTool(ExtractFramesScript))
}

func (s *BlurFilter) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.tools.python(), s.tools.scriptTool(BlurFilterScript))
}

func (s *Deduplicate) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.tools.python(), s.tools.scriptTool(DeduplicateScript))
}

func (s *Colmap) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.tools.colmap())
}

func (s *Command) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.requires...)
}

func (s *FastGS) HealthCheck() stage.Health {
	return stage.CheckTools(s.Name(), s.tools.python(), s.tools.fastGS())
}

package processor

type Option func(*ImageProcessor)

func JPEGQuality(quality int) Option {
	return func(p *ImageProcessor) {
		p.jpegQuality = quality
	}
}

package trainer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/provider/free"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/provider/image"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/provider/llm"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
	"github.com/Roma7-7-7/vocabulary-trainer/pkg/cache"
)

const imageCacheCleanupInterval = time.Hour

// FromConfig builds a trainer over repo with the providers described by conf.
// The paid provider is left out while no API key is configured.
func FromConfig(ctx context.Context, conf config.Providers, repo dal.Repository, log *slog.Logger) *Trainer {
	imageCache := cache.NewInMemory[string]()
	imageCache.StartCleanup(ctx, imageCacheCleanupInterval)

	deps := Dependencies{
		Store:     store.New(repo, log),
		Generator: generator.New(category.NewSelector(nil, log), log),
		Builder:   study.NewBuilder(nil, log),
		Free: free.NewClient(free.Config{
			MyMemoryURL:        conf.Free.MyMemoryURL,
			LibreTranslateURLs: conf.Free.LibreTranslateURLs,
			Timeout:            conf.Free.Timeout,
		}, log),
		Images: image.NewWaterfall(image.Config{
			PollinationsURL: conf.Images.PollinationsURL,
			PicsumURL:       conf.Images.PicsumURL,
			ProbeTimeout:    conf.Images.ProbeTimeout,
			CacheTTL:        conf.Images.CacheTTL,
		}, imageCache, log),
	}
	if conf.LLM.APIKey != "" {
		deps.LLM = llm.NewClient(llm.Config{
			BaseURL:    conf.LLM.BaseURL,
			APIKey:     conf.LLM.APIKey,
			Model:      conf.LLM.Model,
			MaxRetries: conf.LLM.MaxRetries,
			Timeout:    conf.LLM.Timeout,
		}, log)
	} else {
		log.InfoContext(ctx, "paid provider is not configured")
	}

	return New(deps, log)
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"sharpchess/internal/analysis"
	"sharpchess/internal/logging"
)

// Cache is a fast store of encoded results keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

// Archive answers repeated requests from previously completed jobs.
type Archive interface {
	Lookup(ctx context.Context, kind Kind, req Request) ([]byte, bool, error)
}

// CacheKey identifies a normalized request of kind.
func CacheKey(kind Kind, req Request) string {
	return fmt.Sprintf("%s:%d:%d:%s", kind, req.Depth, req.Lines, req.FEN)
}

// Runners builds the run function of each kind on top of svc. cache and
// archive are optional and consulted in that order before the engine.
func Runners(svc *analysis.Service, cache Cache, archive Archive) map[Kind]RunFunc {
	return map[Kind]RunFunc{
		KindEvaluation: reuse(cache, archive, decodeAs[int], func(ctx context.Context, job Job) (any, error) {
			return svc.Evaluate(ctx, job.Request.FEN, job.Request.Depth)
		}),
		KindSharpness: reuse(cache, archive, decodeAs[float64], func(ctx context.Context, job Job) (any, error) {
			return svc.Sharpness(ctx, job.Request.FEN, job.Request.Depth)
		}),
		KindBestLines: reuse(cache, archive, decodeAs[[]analysis.BestLine], func(ctx context.Context, job Job) (any, error) {
			return svc.BestLines(ctx, job.Request.FEN, job.Request.Lines, job.Request.Depth)
		}),
	}
}

func decodeAs[T any](b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func reuse(cache Cache, archive Archive, decode func([]byte) (any, error), run RunFunc) RunFunc {
	return func(ctx context.Context, job Job) (any, error) {
		key := CacheKey(job.Kind, job.Request)
		if cache != nil {
			b, ok, err := cache.Get(ctx, key)
			if err != nil {
				logging.Logger.Warn().Err(err).Str("key", key).Msg("cache get")
			} else if ok {
				if v, err := decode(b); err == nil {
					logging.Debugf("cache hit %s", key)
					return reused{v}, nil
				}
			}
		}
		if archive != nil {
			b, ok, err := archive.Lookup(ctx, job.Kind, job.Request)
			if err != nil {
				logging.Logger.Warn().Err(err).Str("key", key).Msg("archive lookup")
			} else if ok {
				if v, err := decode(b); err == nil {
					logging.Debugf("archive hit %s", key)
					storeCached(ctx, cache, key, b)
					return reused{v}, nil
				}
			}
		}

		v, err := run(ctx, job)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(v); err == nil {
			storeCached(ctx, cache, key, b)
		}
		return v, nil
	}
}

func storeCached(ctx context.Context, cache Cache, key string, b []byte) {
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, key, b); err != nil {
		logging.Logger.Warn().Err(err).Str("key", key).Msg("cache set")
	}
}

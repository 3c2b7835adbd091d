package service

import (
	"github.com/kirinyoku/cineseat/internal/metrics"
	postgres "github.com/kirinyoku/cineseat/internal/repository/postgres"
	redis "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/service/cinema"
	"github.com/kirinyoku/cineseat/internal/service/purchase"
)

type Services struct {
	Cinema   *cinema.Service
	Purchase *purchase.Service
}

type Config struct {
	Cinema   cinema.Config
	Purchase purchase.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	limiter *redis.SlidingWindowLimiter,
	m *metrics.Metrics,
	cfg Config,
	publishers ...purchase.Publisher,
) *Services {
	return &Services{
		Cinema:   cinema.New(store, cache, cfg.Cinema),
		Purchase: purchase.New(store, cache, limiter, m, cfg.Purchase, publishers...),
	}
}

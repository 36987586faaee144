package health

import (
	"context"
	"fmt"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/segmentio/kafka-go"
)

func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
	}

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		// The sink is best-effort, so a broker outage degrades rather
		// than fails the service.
		checks = append(checks, health.Config{
			Name:      "kafka",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check: func(ctx context.Context) error {
				conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
				if err != nil {
					return fmt.Errorf("failed to reach kafka broker: %w", err)
				}
				return conn.Close()
			},
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "flash-sale-backend",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

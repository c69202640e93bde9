//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"irdesk/internal/registry/models"
	"irdesk/internal/registry/store"
	"irdesk/pkg/testutil/containers"
)

type RegistryStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	registry *store.PostgresRegistry
	cache    *store.RedisCache
}

func TestRegistryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RegistryStoreSuite))
}

func (s *RegistryStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.registry = store.NewPostgres(s.postgres.DB)
	s.cache = store.NewRedisCache(s.redis.Client.Client, s.registry, 5*time.Minute)
}

func (s *RegistryStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "registry_holders"))
	s.Require().NoError(s.redis.FlushAll(ctx))
}

func (s *RegistryStoreSuite) TestBulkUpsertAcrossBatches() {
	ctx := context.Background()
	holders := make([]models.Holder, 0, 1200)
	for i := 0; i < 1200; i++ {
		holders = append(holders, models.Holder{ID: fmt.Sprintf("%06d", i), Name: "COMPANY"})
	}
	holders = append(holders, models.Holder{ID: "000001", Name: "COMPANY"})

	n, err := s.registry.BulkUpsert(ctx, holders)
	s.Require().NoError(err)
	s.Equal(1201, n)

	found, err := s.registry.Lookup(ctx, " 000001 ")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("COMPANY", found[0].Name)
}

func (s *RegistryStoreSuite) TestCacheReadThroughAndEviction() {
	ctx := context.Background()
	_, err := s.registry.BulkUpsert(ctx, []models.Holder{{ID: "201234", Name: "BDO UNIBANK INC."}})
	s.Require().NoError(err)

	found, err := s.cache.Lookup(ctx, "201234")
	s.Require().NoError(err)
	s.Len(found, 1)

	exists, err := s.redis.Client.Exists(ctx, "registry:holder:201234").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)

	_, err = s.cache.BulkUpsert(ctx, []models.Holder{{ID: "201234", Name: "BDO LEASING"}})
	s.Require().NoError(err)

	exists, err = s.redis.Client.Exists(ctx, "registry:holder:201234").Result()
	s.Require().NoError(err)
	s.Zero(exists)

	found, err = s.cache.Lookup(ctx, "201234")
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *RegistryStoreSuite) TestCacheStoresMisses() {
	ctx := context.Background()
	found, err := s.cache.Lookup(ctx, "999999")
	s.Require().NoError(err)
	s.Empty(found)

	raw, err := s.redis.Client.Get(ctx, "registry:holder:999999").Result()
	s.Require().NoError(err)
	s.Equal("[]", raw)
}

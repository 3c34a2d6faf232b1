//go:build integration

package processing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"docuflow/internal/intake"
	id "docuflow/pkg/domain"
	"docuflow/pkg/testutil/containers"
)

type RedisDedupSuite struct {
	suite.Suite
	ctx   context.Context
	dedup *RedisDedup
}

func (s *RedisDedupSuite) SetupSuite() {
	s.ctx = context.Background()
	redis := containers.GetManager().GetRedis(s.T())
	s.dedup = NewRedisDedup(redis.Client)
}

func (s *RedisDedupSuite) SetupTest() {
	redis := containers.GetManager().GetRedis(s.T())
	require.NoError(s.T(), redis.FlushAll(s.ctx))
}

func (s *RedisDedupSuite) TestMarkThenCheck() {
	key := forwardKey(id.NewRequirementID(), intake.Attachment{
		FileName: "payroll.pdf",
		Content:  []byte("pdf-bytes"),
	})

	sent, err := s.dedup.AlreadyForwarded(s.ctx, key)
	s.Require().NoError(err)
	s.False(sent)

	s.Require().NoError(s.dedup.MarkForwarded(s.ctx, key, time.Minute))

	sent, err = s.dedup.AlreadyForwarded(s.ctx, key)
	s.Require().NoError(err)
	s.True(sent)
}

func (s *RedisDedupSuite) TestMarkerExpires() {
	key := forwardKey(id.NewRequirementID(), intake.Attachment{
		FileName: "report.pdf",
		Content:  []byte("bytes"),
	})

	s.Require().NoError(s.dedup.MarkForwarded(s.ctx, key, 100*time.Millisecond))

	s.Require().Eventually(func() bool {
		sent, err := s.dedup.AlreadyForwarded(s.ctx, key)
		return err == nil && !sent
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisDedupSuite) TestDifferentContentGetsDifferentKeys() {
	reqID := id.NewRequirementID()
	first := forwardKey(reqID, intake.Attachment{FileName: "report.pdf", Content: []byte("v1")})
	second := forwardKey(reqID, intake.Attachment{FileName: "report.pdf", Content: []byte("v2")})
	s.NotEqual(first, second)

	s.Require().NoError(s.dedup.MarkForwarded(s.ctx, first, time.Minute))

	sent, err := s.dedup.AlreadyForwarded(s.ctx, second)
	s.Require().NoError(err)
	s.False(sent)
}

func TestRedisDedupSuite(t *testing.T) {
	suite.Run(t, new(RedisDedupSuite))
}

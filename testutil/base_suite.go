package testutil

import (
	"os"
	"strconv"
	"time"

	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
}

func (s *BaseSuite) StrEnv(env string, defaultValue string) string {
	strValue := os.Getenv(env)
	if strValue == "" {
		return defaultValue
	}

	return strValue
}

func (s *BaseSuite) IntEnv(env string, defaultValue int) int {
	strValue := os.Getenv(env)
	if strValue == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(strValue)
	s.Require().NoError(err)
	return i
}

// WaitClosed blocks until ch closes, failing the test after the deadline.
func (s *BaseSuite) WaitClosed(ch <-chan struct{}, deadline time.Duration) {
	select {
	case <-ch:
	case <-time.After(deadline):
		s.Require().FailNow("channel was not closed in time")
	}
}

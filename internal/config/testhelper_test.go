package config

import (
	"testing"

	"gitlab.com/stagehand/stagehand/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.Run(m)
}

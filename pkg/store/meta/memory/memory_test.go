package memory

import (
	"testing"

	"github.com/integrable/stardust/pkg/store/meta"
	metatesting "github.com/integrable/stardust/pkg/store/meta/testing"
)

// TestMemoryMetaStore runs the meta.Store test suite against the in-memory
// implementation.
func TestMemoryMetaStore(t *testing.T) {
	suite := &metatesting.StoreTestSuite{
		NewStore: func(t *testing.T) meta.Store {
			return NewMemoryMetaStore()
		},
	}

	suite.Run(t)
}

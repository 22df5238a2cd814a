package memory

import (
	"testing"

	"github.com/vedran77/glamplanner/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.RunAll(t, NewStore())
}

package memory

import (
	"testing"

	"github.com/rampkit/ramp/pkg/ports"
)

func TestStateStoreContract(t *testing.T) {
	ports.RunStateStoreContract(t, NewStore())
}

func TestFragmentStoreContract(t *testing.T) {
	ports.RunFragmentStoreContract(t, NewStore())
}

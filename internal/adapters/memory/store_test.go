package memory_test

import (
	"testing"

	"github.com/deckwright/deckwright/internal/adapters/memory"
	"github.com/deckwright/deckwright/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

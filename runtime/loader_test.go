package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)

	data, err := NewCensoredLoader().LoadAll("censored")
	req.NoError(err)

	// One language per dictionary file
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)

	// Words shared across languages appear once
	req.NotEmpty(data.Words)
	seen := make(map[string]int)
	for _, w := range data.Words {
		seen[w]++
	}
	req.Equal(1, seen["idiot"])
	req.Contains(data.Words, "merde")
	req.Contains(data.Words, "stupid")
}

func TestCensoredLoader_MissingDirectory(t *testing.T) {
	_, err := NewCensoredLoader().LoadAll("nowhere")
	require.Error(t, err)
}

package access

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenialLog_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denied.log")
	log := NewDenialLog(path)

	log.Record(context.Background(), Denial{Category: "milkman", Username: "sam", Reason: ReasonWrongID})
	log.Record(context.Background(), Denial{Category: "residents", Username: "eve", Reason: ReasonUnknownUser})
	require.NoError(t, log.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, "access denied", lines[0]["msg"])
	assert.Equal(t, "milkman", lines[0]["category"])
	assert.Equal(t, "sam", lines[0]["username"])
	assert.Equal(t, ReasonWrongID, lines[0]["reason"])
	assert.NotEmpty(t, lines[0]["time"])
	assert.Equal(t, "eve", lines[1]["username"])
}

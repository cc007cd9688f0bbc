package badge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/badge"
)

func TestNewToken_URLSafeAndUnique(t *testing.T) {
	a, err := badge.NewToken()
	require.NoError(t, err)
	b, err := badge.NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")
}

func TestCheckinURL_JoinsCleanly(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/checkin/tok",
		badge.CheckinURL("http://localhost:8080", "tok"))
	assert.Equal(t, "http://localhost:8080/api/checkin/tok",
		badge.CheckinURL("http://localhost:8080/", "tok"))
}

func TestWriteQR_WritesAndOverwrites(t *testing.T) {
	// GIVEN: A badge dir and an employee
	// WHEN: Writing the badge twice
	// THEN: The PNG exists and regeneration overwrites in place

	dir := t.TempDir()
	name, err := badge.WriteQR(dir, "emp-7", "http://localhost:8080/api/checkin/tok")
	require.NoError(t, err)
	assert.Equal(t, "employee_emp-7.png", name)

	info, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	again, err := badge.WriteQR(dir, "emp-7", "http://localhost:8080/api/checkin/other")
	require.NoError(t, err)
	assert.Equal(t, name, again)
}
